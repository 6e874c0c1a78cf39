// Package token issues tokens through the identity provider and validates
// access tokens locally against the provider's signing keys.
package token

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"time"

	"bankauth/internal/keycloak"
	"bankauth/internal/logger"
	"bankauth/internal/telemetry"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("token is malformed")
	ErrUnknownKey = errors.New("token signing key is unknown")
	ErrSignature  = errors.New("token signature is invalid")
	ErrIssuer     = errors.New("token issuer is not trusted")
	ErrExpired    = errors.New("token is expired")
)

var signingMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}

// Pair is what the provider hands back on a successful grant.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
}

type Exchanger interface {
	PasswordGrant(ctx context.Context, username, password string) (*keycloak.TokenResponse, error)
	RefreshGrant(ctx context.Context, refreshToken string) (*keycloak.TokenResponse, error)
}

type KeySource interface {
	GetKey(ctx context.Context, kid string) (crypto.PublicKey, bool)
}

type Params struct {
	Exchanger     Exchanger
	Keys          KeySource
	Issuer        string
	AdminUsername string
	AdminPassword string
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	exchanger     Exchanger
	keys          KeySource
	issuer        string
	adminUsername string
	adminPassword string
	now           func() time.Time
	parser        *jwt.Parser
}

func NewService(params Params) *Service {
	now := params.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		exchanger:     params.Exchanger,
		keys:          params.Keys,
		issuer:        params.Issuer,
		adminUsername: params.AdminUsername,
		adminPassword: params.AdminPassword,
		now:           now,
		// Time based claims are checked in Verify against the injected clock.
		parser: jwt.NewParser(jwt.WithValidMethods(signingMethods), jwt.WithoutClaimsValidation()),
	}
}

// IssueAdminToken obtains an access token for the admin service account.
func (s *Service) IssueAdminToken(ctx context.Context) (string, error) {
	resp, err := s.exchanger.PasswordGrant(ctx, s.adminUsername, s.adminPassword)
	if err != nil {
		return "", fmt.Errorf("issue admin token: %w", err)
	}
	return resp.AccessToken, nil
}

func (s *Service) IssueUserToken(ctx context.Context, username, password string) (*Pair, error) {
	resp, err := s.exchanger.PasswordGrant(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return pairFrom(resp), nil
}

func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*Pair, error) {
	resp, err := s.exchanger.RefreshGrant(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return pairFrom(resp), nil
}

// ValidateToken reports whether accessToken was signed by a known provider
// key, was issued by the configured issuer and has not expired. The only
// network call it may make is a signing key refetch for an unknown kid.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) bool {
	_, err := s.Verify(ctx, accessToken)
	telemetry.RecordTokenValidation(err == nil)
	if err != nil {
		logger.Debug().Err(err).Msg("token rejected")
		return false
	}
	return true
}

// Verify runs the same checks as ValidateToken and returns the decoded claims.
func (s *Service) Verify(ctx context.Context, accessToken string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := s.parser.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: missing kid header", ErrMalformed)
		}
		claims.keyID = kid

		key, ok := s.keys.GetKey(ctx, kid)
		if !ok {
			return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
		}
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrSignature
	}

	if claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: %q", ErrIssuer, claims.Issuer)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrExpired)
	}
	if !claims.ExpiresAt.After(s.now()) {
		return nil, ErrExpired
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKey), errors.Is(err, ErrMalformed):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}
}

func pairFrom(resp *keycloak.TokenResponse) *Pair {
	return &Pair{
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresIn:        resp.ExpiresIn,
		RefreshExpiresIn: resp.RefreshExpiresIn,
	}
}
