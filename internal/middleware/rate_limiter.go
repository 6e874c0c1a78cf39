package middleware

import (
	"errors"
	"net/http"
	"time"

	"bankauth/internal"
	"bankauth/internal/logger"

	"github.com/go-chi/httprate"
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimitByIP allows requestsPerWindow requests per connection address and
// window. Forwarding headers are client-controlled and are not part of the key.
func RateLimitByIP(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerWindow,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			key, _ := httprate.KeyByIP(r)
			logger.Warn().
				Str("client_ip", key).
				Str("path", r.URL.Path).
				Int("limit", requestsPerWindow).
				Msg("rate limit exceeded")

			internal.
				Respond(w).
				Status(http.StatusTooManyRequests).
				Message("rate limit exceeded. please try again later").
				Error(errRateLimited).
				Send()
		}),
	)
}
