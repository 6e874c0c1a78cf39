package keycloak

import (
	"context"
	"fmt"
	"strings"

	"bankauth/internal/config"
	"bankauth/internal/failure"
	"bankauth/internal/logger"

	"github.com/Nerzal/gocloak/v13"
)

// Role mirrors Keycloak's RoleRepresentation; only the fields needed for
// role mappings are kept.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *Client) realmRoles(ctx context.Context, token string) ([]Role, error) {
	listed, err := c.gocloak.GetRealmRoles(ctx, token, c.realm, gocloak.GetRoleParams{})
	if err != nil {
		return nil, fmt.Errorf("list realm roles: %w", err)
	}

	roles := make([]Role, 0, len(listed))
	for _, role := range listed {
		if role == nil || role.Name == nil {
			continue
		}
		roles = append(roles, Role{ID: gocloak.PString(role.ID), Name: *role.Name})
	}
	return roles, nil
}

// resolveRoles matches requested role names against the realm catalog,
// ignoring case. Unknown names fail under the strict policy and are dropped
// otherwise; an empty result falls back to the default role.
func (c *Client) resolveRoles(username string, requested []string, catalog []Role) ([]Role, error) {
	byName := make(map[string]Role, len(catalog))
	for _, role := range catalog {
		byName[strings.ToLower(role.Name)] = role
	}

	var (
		resolved []Role
		unknown  []string
		seen     = map[string]bool{}
	)
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		role, ok := byName[key]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		resolved = append(resolved, role)
	}

	if len(unknown) > 0 {
		if c.rolePolicy == config.RolePolicyStrict {
			return nil, &failure.UnknownRoleError{Roles: unknown}
		}
		logger.Warn().
			Str("username", username).
			Strs("roles", unknown).
			Msg("dropping roles unknown to the realm")
	}

	if len(resolved) > 0 {
		return resolved, nil
	}

	role, ok := byName[strings.ToLower(c.defaultRole)]
	if !ok {
		return nil, fmt.Errorf("default role %q is not defined in realm %s", c.defaultRole, c.realm)
	}
	logger.Debug().
		Str("username", username).
		Str("role", role.Name).
		Msg("assigning default role")
	return []Role{role}, nil
}

func roleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	return names
}
