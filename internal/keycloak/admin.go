package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bankauth/internal/failure"
	"bankauth/internal/logger"

	"github.com/Nerzal/gocloak/v13"
)

// NewIdentity is what the provider needs to create a user. Password is only
// forwarded, never stored.
type NewIdentity struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Roles     []string
}

// Identity is a user created in the provider.
type Identity struct {
	ID       string
	Username string
	Roles    []string
}

// CreateIdentity creates the user, sets its password and assigns realm roles.
// When a follow-up step fails the half-built user is removed before the error
// is returned, so a failed call leaves nothing behind.
func (c *Client) CreateIdentity(ctx context.Context, adminToken string, in NewIdentity) (*Identity, error) {
	catalog, err := c.realmRoles(ctx, adminToken)
	if err != nil {
		return nil, &failure.IdentityCreationError{Username: in.Username, Err: err}
	}

	roles, err := c.resolveRoles(in.Username, in.Roles, catalog)
	if err != nil {
		var unknown *failure.UnknownRoleError
		if errors.As(err, &unknown) {
			return nil, err
		}
		return nil, &failure.IdentityCreationError{Username: in.Username, Err: err}
	}

	id, err := c.createUser(ctx, adminToken, in)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("username", in.Username).Str("identity_id", id).Msg("identity created")

	if err := c.setPassword(ctx, adminToken, id, in.Password); err != nil {
		c.discard(ctx, adminToken, id, in.Username)
		return nil, &failure.IdentityCreationError{Username: in.Username, Err: err}
	}

	if err := c.assignRoles(ctx, adminToken, id, roles); err != nil {
		c.discard(ctx, adminToken, id, in.Username)
		return nil, &failure.IdentityCreationError{Username: in.Username, Err: err}
	}

	logger.Info().
		Str("username", in.Username).
		Strs("roles", roleNames(roles)).
		Msg("identity created with roles")

	return &Identity{ID: id, Username: in.Username, Roles: roleNames(roles)}, nil
}

func (c *Client) createUser(ctx context.Context, token string, in NewIdentity) (string, error) {
	id, err := c.gocloak.CreateUser(ctx, token, c.realm, gocloak.User{
		Username:      gocloak.StringP(in.Username),
		Email:         optional(in.Email),
		FirstName:     optional(in.FirstName),
		LastName:      optional(in.LastName),
		Enabled:       gocloak.BoolP(true),
		EmailVerified: gocloak.BoolP(true),
	})
	if err != nil {
		status := apiStatus(err)
		if status == http.StatusConflict {
			return "", &failure.IdentityAlreadyExistsError{Username: in.Username}
		}
		return "", &failure.IdentityCreationError{Username: in.Username, Status: status, Err: err}
	}

	if id == "" {
		return "", &failure.IdentityCreationError{
			Username: in.Username,
			Status:   http.StatusCreated,
			Err:      errors.New("create user: response has no Location header"),
		}
	}
	return id, nil
}

func (c *Client) setPassword(ctx context.Context, token, id, password string) error {
	if err := c.gocloak.SetPassword(ctx, token, id, c.realm, password, false); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (c *Client) assignRoles(ctx context.Context, token, id string, roles []Role) error {
	mappings := make([]gocloak.Role, 0, len(roles))
	for _, role := range roles {
		mappings = append(mappings, gocloak.Role{ID: gocloak.StringP(role.ID), Name: gocloak.StringP(role.Name)})
	}

	if err := c.gocloak.AddRealmRoleToUser(ctx, token, c.realm, id, mappings); err != nil {
		return fmt.Errorf("assign realm roles: %w", err)
	}
	return nil
}

// discard removes a partially created identity. Failures are only logged.
func (c *Client) discard(ctx context.Context, token, id, username string) {
	if err := c.deleteByID(context.WithoutCancel(ctx), token, id); err != nil {
		logger.Error().
			Err(err).
			Str("username", username).
			Str("identity_id", id).
			Msg("failed to remove partially created identity")
		return
	}
	logger.Warn().
		Str("username", username).
		Str("identity_id", id).
		Msg("removed partially created identity")
}

// DeleteIdentity removes the user with exactly this username. A user that is
// already gone is not an error.
func (c *Client) DeleteIdentity(ctx context.Context, adminToken, username string) error {
	users, err := c.gocloak.GetUsers(ctx, adminToken, c.realm, gocloak.GetUsersParams{
		Username: gocloak.StringP(username),
		Exact:    gocloak.BoolP(true),
	})
	if err != nil {
		return fmt.Errorf("search user %s: %w", username, err)
	}

	for _, user := range users {
		if user == nil || !strings.EqualFold(gocloak.PString(user.Username), username) {
			continue
		}
		if err := c.deleteByID(ctx, adminToken, gocloak.PString(user.ID)); err != nil {
			return err
		}
		logger.Info().Str("username", username).Msg("identity deleted")
		return nil
	}

	logger.Warn().Str("username", username).Msg("identity not found, nothing to delete")
	return nil
}

func (c *Client) deleteByID(ctx context.Context, token, id string) error {
	err := c.gocloak.DeleteUser(ctx, token, c.realm, id)
	if err != nil && apiStatus(err) != http.StatusNotFound {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
