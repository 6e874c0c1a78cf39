package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of a Keycloak access token this service reads.
type Claims struct {
	jwt.RegisteredClaims

	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`

	keyID string
}

func (c *Claims) KeyID() string { return c.keyID }

func (c *Claims) Username() string { return c.PreferredUsername }

func (c *Claims) Roles() []string { return c.RealmAccess.Roles }

// Expiry returns the exp claim, or the zero time when it is missing.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
