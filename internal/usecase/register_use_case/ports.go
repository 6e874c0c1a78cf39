package registerusecase

import (
	"context"

	"bankauth/internal/kafka"
	"bankauth/internal/keycloak"
	"bankauth/internal/store/pg/repository"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

type UserStore interface {
	UserExistsByID(ctx context.Context, id string) (bool, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error)
	DeleteUser(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, arg repository.CreateAuditLogParams) (repository.AuditLog, error)
}

type TokenIssuer interface {
	IssueAdminToken(ctx context.Context) (string, error)
}

type IdentityProvider interface {
	CreateIdentity(ctx context.Context, adminToken string, in keycloak.NewIdentity) (*keycloak.Identity, error)
	DeleteIdentity(ctx context.Context, adminToken, username string) error
}

type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event kafka.UserRegisteredEvent) error
}
