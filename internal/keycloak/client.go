// Package keycloak talks to the identity provider: the OpenID token endpoint
// and the admin REST API used to create and remove user identities.
package keycloak

import (
	"errors"
	"net/http"
	"strings"

	"bankauth/internal/config"

	"github.com/Nerzal/gocloak/v13"
	"github.com/go-resty/resty/v2"
)

type Client struct {
	gocloak      *gocloak.GoCloak
	realm        string
	clientID     string
	clientSecret string
	defaultRole  string
	rolePolicy   string
}

// NewClient builds a client for one realm. A nil httpClient gets one bounded
// by cfg.HTTPTimeout.
func NewClient(cfg config.KeycloakConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	gc := gocloak.NewClient(strings.TrimRight(cfg.URL, "/"))
	gc.SetRestyClient(resty.NewWithClient(httpClient))

	return &Client{
		gocloak:      gc,
		realm:        cfg.Realm,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		defaultRole:  cfg.DefaultRole,
		rolePolicy:   cfg.RolePolicy,
	}
}

// apiStatus returns the HTTP status behind a gocloak error, or 0 when the
// request never got a usable response.
func apiStatus(err error) int {
	var apiErr *gocloak.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// optional maps an empty string to an absent field.
func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
