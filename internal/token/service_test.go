package token

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	"bankauth/internal/failure"
	"bankauth/internal/jwks"
	"bankauth/internal/keycloak"
	"bankauth/internal/testutil/jwkstest"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const issuer = "http://keycloak:8080/realms/bank-realm"

type fakeExchanger struct {
	password func(username, password string) (*keycloak.TokenResponse, error)
	refresh  func(refreshToken string) (*keycloak.TokenResponse, error)
	calls    int
}

func (f *fakeExchanger) PasswordGrant(_ context.Context, username, password string) (*keycloak.TokenResponse, error) {
	f.calls++
	return f.password(username, password)
}

func (f *fakeExchanger) RefreshGrant(_ context.Context, refreshToken string) (*keycloak.TokenResponse, error) {
	f.calls++
	return f.refresh(refreshToken)
}

type ValidateTokenSuite struct {
	suite.Suite

	now     time.Time
	key     *jwkstest.Key
	server  *jwkstest.Server
	service *Service
}

func TestValidateTokenSuite(t *testing.T) {
	suite.Run(t, new(ValidateTokenSuite))
}

func (s *ValidateTokenSuite) SetupTest() {
	s.now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	s.key = jwkstest.NewRSAKey(s.T(), "kid-1")
	s.server = jwkstest.NewServer(s.T(), s.key)
	s.service = NewService(Params{
		Exchanger: &fakeExchanger{},
		Keys:      jwks.New(s.server.URL, s.server.Client()),
		Issuer:    issuer,
		Now:       func() time.Time { return s.now },
	})
}

func (s *ValidateTokenSuite) sign(claims jwt.MapClaims) string {
	return s.key.Sign(s.T(), claims)
}

func (s *ValidateTokenSuite) TestValidToken() {
	token := s.sign(jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Second)))

	s.True(s.service.ValidateToken(context.Background(), token))

	claims, err := s.service.Verify(context.Background(), token)
	s.Require().NoError(err)
	s.Equal("jdoe", claims.Username())
	s.Equal("kid-1", claims.KeyID())
	s.Equal([]string{"user"}, claims.Roles())
	s.True(claims.Expiry().Equal(s.now.Add(time.Second)))
}

func (s *ValidateTokenSuite) TestExpiryEqualToNowIsInvalid() {
	token := s.sign(jwkstest.Claims(issuer, "jdoe", s.now))

	s.False(s.service.ValidateToken(context.Background(), token))

	_, err := s.service.Verify(context.Background(), token)
	s.ErrorIs(err, ErrExpired)
}

func (s *ValidateTokenSuite) TestExpiredToken() {
	token := s.sign(jwkstest.Claims(issuer, "jdoe", s.now.Add(-time.Minute)))

	_, err := s.service.Verify(context.Background(), token)
	s.ErrorIs(err, ErrExpired)
}

func (s *ValidateTokenSuite) TestMissingExpiry() {
	claims := jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour))
	delete(claims, "exp")

	_, err := s.service.Verify(context.Background(), s.sign(claims))
	s.ErrorIs(err, ErrExpired)
}

func (s *ValidateTokenSuite) TestIssuerMismatch() {
	token := s.sign(jwkstest.Claims("http://keycloak:8080/realms/other-realm", "jdoe", s.now.Add(time.Hour)))

	s.False(s.service.ValidateToken(context.Background(), token))

	_, err := s.service.Verify(context.Background(), token)
	s.ErrorIs(err, ErrIssuer)
}

func (s *ValidateTokenSuite) TestMalformedTokens() {
	for _, raw := range []string{"", "not-a-jwt", "a.b.c", "x.y"} {
		_, err := s.service.Verify(context.Background(), raw)
		s.ErrorIs(err, ErrMalformed, "input %q", raw)
	}
	s.Equal(0, s.server.Hits(), "malformed tokens never reach the key set")
}

func (s *ValidateTokenSuite) TestMissingKid() {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))
	raw, err := token.SignedString(s.key.Private)
	s.Require().NoError(err)

	_, err = s.service.Verify(context.Background(), raw)
	s.ErrorIs(err, ErrMalformed)
}

func (s *ValidateTokenSuite) TestUnknownKidRefetchesOnce() {
	stranger := jwkstest.NewRSAKey(s.T(), "kid-unknown")
	token := stranger.Sign(s.T(), jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))

	_, err := s.service.Verify(context.Background(), token)
	s.ErrorIs(err, ErrUnknownKey)
	s.Equal(1, s.server.Hits())
}

func (s *ValidateTokenSuite) TestRotatedKeyIsPickedUp() {
	s.Require().True(s.service.ValidateToken(context.Background(), s.sign(jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))))

	rotated := jwkstest.NewRSAKey(s.T(), "kid-2")
	s.server.SetKeys(s.key, rotated)

	token := rotated.Sign(s.T(), jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))
	s.True(s.service.ValidateToken(context.Background(), token))
	s.Equal(2, s.server.Hits())
}

func (s *ValidateTokenSuite) TestBadSignature() {
	impostor := jwkstest.NewRSAKey(s.T(), "kid-1")
	token := impostor.Sign(s.T(), jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))

	_, err := s.service.Verify(context.Background(), token)
	s.ErrorIs(err, ErrSignature)
}

func (s *ValidateTokenSuite) TestTamperedPayload() {
	token := s.sign(jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))
	other := s.sign(jwkstest.Claims(issuer, "admin", s.now.Add(time.Hour)))

	parts := strings.Split(token, ".")
	parts[1] = strings.Split(other, ".")[1]

	_, err := s.service.Verify(context.Background(), strings.Join(parts, "."))
	s.ErrorIs(err, ErrSignature)
}

func (s *ValidateTokenSuite) TestRejectsUnsignedAndSymmetricTokens() {
	claims := jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	none.Header["kid"] = "kid-1"
	rawNone, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	s.Require().NoError(err)
	s.False(s.service.ValidateToken(context.Background(), rawNone))

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	hmac.Header["kid"] = "kid-1"
	rawHMAC, err := hmac.SignedString([]byte("shared"))
	s.Require().NoError(err)
	s.False(s.service.ValidateToken(context.Background(), rawHMAC))
}

func (s *ValidateTokenSuite) TestValidationIsPure() {
	token := s.sign(jwkstest.Claims(issuer, "jdoe", s.now.Add(time.Hour)))

	for range 5 {
		s.True(s.service.ValidateToken(context.Background(), token))
	}
	s.Equal(1, s.server.Hits())
}

func TestValidateToken_ECKey(t *testing.T) {
	private, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	keys := staticKeys{"ec-1": &private.PublicKey}
	service := NewService(Params{Keys: keys, Issuer: issuer, Now: func() time.Time { return now }})

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwkstest.Claims(issuer, "jdoe", now.Add(time.Minute)))
	token.Header["kid"] = "ec-1"
	raw, err := token.SignedString(private)
	require.NoError(t, err)

	assert.True(t, service.ValidateToken(context.Background(), raw))

	// An RS256 header must not be accepted for an EC key.
	rsaKey := jwkstest.NewRSAKey(t, "ec-1")
	forged := rsaKey.Sign(t, jwkstest.Claims(issuer, "jdoe", now.Add(time.Minute)))
	assert.False(t, service.ValidateToken(context.Background(), forged))
}

type staticKeys map[string]crypto.PublicKey

func (k staticKeys) GetKey(_ context.Context, kid string) (crypto.PublicKey, bool) {
	key, ok := k[kid]
	return key, ok
}

func TestIssueTokens(t *testing.T) {
	exchanger := &fakeExchanger{
		password: func(username, password string) (*keycloak.TokenResponse, error) {
			switch {
			case username == "admin-app" && password == "admin-pass":
				return &keycloak.TokenResponse{AccessToken: "admin-access"}, nil
			case password == "correct":
				return &keycloak.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 300, RefreshExpiresIn: 1800}, nil
			default:
				return nil, failure.ErrInvalidCredentials
			}
		},
		refresh: func(refreshToken string) (*keycloak.TokenResponse, error) {
			if refreshToken == "r" {
				return &keycloak.TokenResponse{AccessToken: "a2", RefreshToken: "r2", ExpiresIn: 300}, nil
			}
			return nil, &failure.ProviderError{Status: 400, Code: "invalid_grant"}
		},
	}
	service := NewService(Params{Exchanger: exchanger, AdminUsername: "admin-app", AdminPassword: "admin-pass"})
	ctx := context.Background()

	adminToken, err := service.IssueAdminToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin-access", adminToken)

	pair, err := service.IssueUserToken(ctx, "jdoe", "correct")
	require.NoError(t, err)
	assert.Equal(t, &Pair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 300, RefreshExpiresIn: 1800}, pair)

	_, err = service.IssueUserToken(ctx, "jdoe", "wrong")
	assert.ErrorIs(t, err, failure.ErrInvalidCredentials)

	pair, err = service.RefreshToken(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, "a2", pair.AccessToken)

	_, err = service.RefreshToken(ctx, "stale")
	var provider *failure.ProviderError
	assert.True(t, errors.As(err, &provider))
}

func TestIssueAdminToken_WrapsFailure(t *testing.T) {
	exchanger := &fakeExchanger{
		password: func(string, string) (*keycloak.TokenResponse, error) {
			return nil, &failure.ProviderUnreachableError{Err: errors.New("dial tcp: connection refused")}
		},
	}
	service := NewService(Params{Exchanger: exchanger})

	_, err := service.IssueAdminToken(context.Background())

	var unreachable *failure.ProviderUnreachableError
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, failure.CodeKeycloak, failure.CodeOf(err))
}
