package keycloak

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"bankauth/internal/failure"
	"bankauth/internal/logger"
	"bankauth/internal/telemetry"

	"github.com/Nerzal/gocloak/v13"
)

const (
	GrantPassword     = "password"
	GrantRefreshToken = "refresh_token"
)

// TokenResponse is the token endpoint's success body.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// PasswordGrant exchanges a username and password for a token pair.
func (c *Client) PasswordGrant(ctx context.Context, username, password string) (*TokenResponse, error) {
	resp, err := c.exchange(ctx, gocloak.TokenOptions{
		GrantType: gocloak.StringP(GrantPassword),
		Username:  &username,
		Password:  &password,
		Scopes:    &[]string{"openid"},
	})
	telemetry.RecordTokenExchange(GrantPassword, err)
	return resp, err
}

// RefreshGrant exchanges a refresh token for a new token pair.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.exchange(ctx, gocloak.TokenOptions{
		GrantType:    gocloak.StringP(GrantRefreshToken),
		RefreshToken: &refreshToken,
	})
	telemetry.RecordTokenExchange(GrantRefreshToken, err)
	return resp, err
}

// exchange posts the grant and normalizes failures: 401 becomes
// ErrInvalidCredentials, any other error status a ProviderError, and a
// request without a response a ProviderUnreachableError.
func (c *Client) exchange(ctx context.Context, options gocloak.TokenOptions) (*TokenResponse, error) {
	options.ClientID = &c.clientID
	if c.clientSecret != "" {
		options.ClientSecret = &c.clientSecret
	}

	jwt, err := c.gocloak.GetToken(ctx, c.realm, options)
	if err != nil {
		return nil, exchangeError(err)
	}
	if jwt == nil || jwt.AccessToken == "" {
		return nil, &failure.ProviderError{Status: http.StatusOK, Code: "invalid_response", Description: "missing access_token"}
	}

	return &TokenResponse{
		AccessToken:      jwt.AccessToken,
		RefreshToken:     jwt.RefreshToken,
		ExpiresIn:        jwt.ExpiresIn,
		RefreshExpiresIn: jwt.RefreshExpiresIn,
		TokenType:        jwt.TokenType,
	}, nil
}

func exchangeError(err error) error {
	var apiErr *gocloak.APIError
	if !errors.As(err, &apiErr) || apiErr.Code == 0 {
		return &failure.ProviderUnreachableError{Err: err}
	}

	if apiErr.Code == http.StatusUnauthorized {
		return failure.ErrInvalidCredentials
	}

	code, description := parseAPIMessage(apiErr.Message)
	if code == "unknown_error" {
		logger.Warn().
			Int("status", apiErr.Code).
			Msg("token endpoint returned an unparseable error body")
	}
	return &failure.ProviderError{Status: apiErr.Code, Code: code, Description: description}
}

// parseAPIMessage splits gocloak's "<status>: <error>: <description>" message.
// A message with no error body yields unknown_error.
func parseAPIMessage(message string) (code, description string) {
	_, body, found := strings.Cut(message, ": ")
	if !found || body == "" {
		return "unknown_error", message
	}
	code, description, _ = strings.Cut(body, ": ")
	return code, description
}
