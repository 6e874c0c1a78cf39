package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"bankauth/internal"
	"bankauth/internal/failure"
	"bankauth/internal/logger"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error().
					Interface("panic", rec).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Msg("panic recovered")

				internal.Respond(w).
					Status(http.StatusInternalServerError).
					Message(failure.ErrServer.Error()).
					Error(fmt.Errorf("panic: %v", rec)).
					Send()
			}
		}()

		next.ServeHTTP(w, r)
	})
}
