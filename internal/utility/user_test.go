package utility

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("jane.doe+bank@mail.example.com"))
	assert.True(t, IsEmail("  jdoe@bank.example "))
	assert.False(t, IsEmail(""))
	assert.False(t, IsEmail("jdoe"))
	assert.Equal(t, "jdoe@bank.example", NormalizeEmail("  JDoe@Bank.Example "))
}

func TestValidateAdult(t *testing.T) {
	now := date(2026, 3, 14)

	tests := []struct {
		name  string
		birth time.Time
		want  error
	}{
		{name: "eighteenth birthday today", birth: date(2008, 3, 14)},
		{name: "one day short of eighteen", birth: date(2008, 3, 15), want: ErrNotAdult},
		{name: "well over eighteen", birth: date(1970, 1, 1)},
		{name: "born in the future", birth: date(2027, 1, 1), want: ErrBirthInFuture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdult(tt.birth, now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAge_LeapDay(t *testing.T) {
	birth := date(2008, 2, 29)

	assert.Equal(t, 17, Age(birth, date(2026, 2, 28)))
	assert.Equal(t, 18, Age(birth, date(2026, 3, 1)))
}

func TestParseBirthDate(t *testing.T) {
	parsed, err := ParseBirthDate("1990-05-17")
	require.NoError(t, err)
	assert.Equal(t, date(1990, 5, 17), parsed)

	_, err = ParseBirthDate("17/05/1990")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:52100"
	assert.Equal(t, "192.0.2.10", GetClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}
