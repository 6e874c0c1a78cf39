package middleware

import (
	"context"
	"net/http"
	"strings"

	"bankauth/internal"
	"bankauth/internal/constants"
	verifyaccesstokenusecase "bankauth/internal/usecase/verify_access_token_use_case"
)

type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, req verifyaccesstokenusecase.Payload) (*verifyaccesstokenusecase.VerifyTokenResponse, error)
}

type principalKey struct{}

// Authenticate rejects requests without a valid bearer token. The token is
// read from the Authorization header, then from the access token cookie.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := verifier.VerifyAccessToken(r.Context(), verifyaccesstokenusecase.Payload{
				Token: bearerToken(r),
			})
			if err != nil {
				internal.Respond(w).
					Header("WWW-Authenticate", `Bearer error="invalid_token"`).
					Message("missing or invalid token").
					Unauthorized(err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal returns the verified token claims stored by Authenticate.
func Principal(ctx context.Context) (*verifyaccesstokenusecase.VerifyTokenResponse, bool) {
	principal, ok := ctx.Value(principalKey{}).(*verifyaccesstokenusecase.VerifyTokenResponse)
	return principal, ok
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	if c, err := r.Cookie(constants.AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}
