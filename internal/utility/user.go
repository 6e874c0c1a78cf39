package utility

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const adultAge = 18

var (
	ErrRequired        = errors.New("must not be empty")
	ErrInvalidEmail    = errors.New("email should be valid")
	ErrNotAdult        = errors.New("the user must be at least 18 years old")
	ErrTooLong         = errors.New("is too long")
	ErrInvalidDate     = errors.New("must be a date in YYYY-MM-DD format")
	ErrBirthInFuture   = errors.New("must not be in the future")
	ErrInvalidIdentity = errors.New("must contain only letters, digits and dashes")
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseBirthDate parses YYYY-MM-DD as a UTC calendar date.
func ParseBirthDate(s string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

// ValidateAdult checks that at least 18 whole years passed between birth and now.
func ValidateAdult(birth, now time.Time) error {
	if birth.After(now) {
		return ErrBirthInFuture
	}
	if Age(birth, now) < adultAge {
		return ErrNotAdult
	}
	return nil
}

// Age returns the number of completed years between birth and now.
func Age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// GetClientIP returns the originating client address without a port.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func GetRequestID(r *http.Request) string {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		return reqID
	}
	if reqID := r.Header.Get(middleware.RequestIDHeader); reqID != "" {
		return reqID
	}
	return "unknown"
}
