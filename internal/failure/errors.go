package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Code is the machine-readable error tag sent to API callers.
type Code string

const (
	CodeUserExists         Code = "USER_EXISTS"
	CodeKeycloak           Code = "KEYCLOAK_ERROR"
	CodeDatabase           Code = "DATABASE_ERROR"
	CodeKafka              Code = "KAFKA_ERROR"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeInvalidRole        Code = "INVALID_ROLE"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Fields reported by DuplicateKeyError.
const (
	FieldIdentityNumber = "identity number"
	FieldUsername       = "username"
	FieldEmail          = "email"
)

var (
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrServer             = errors.New("internal server error")
	ErrUnauthorized       = errors.New("missing or invalid token")
)

// DuplicateKeyError reports which unique field already exists in the user store.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("a user with this %s already exists", e.Field)
}

// IdentityAlreadyExistsError is returned when the identity provider answers 409.
type IdentityAlreadyExistsError struct {
	Username string
}

func (e *IdentityAlreadyExistsError) Error() string {
	return fmt.Sprintf("user %s already exists in the identity provider", e.Username)
}

type IdentityCreationError struct {
	Username string
	Status   int
	Err      error
}

func (e *IdentityCreationError) Error() string {
	msg := fmt.Sprintf("failed to create user %s in the identity provider", e.Username)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *IdentityCreationError) Unwrap() error { return e.Err }

// UnknownRoleError is only produced under the strict role policy.
type UnknownRoleError struct {
	Roles []string
}

func (e *UnknownRoleError) Error() string {
	return "unknown roles requested: " + strings.Join(e.Roles, ", ")
}

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("database %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type EventPublishError struct {
	Topic string
	Err   error
}

func (e *EventPublishError) Error() string {
	return fmt.Sprintf("failed to publish event to %s: %v", e.Topic, e.Err)
}

func (e *EventPublishError) Unwrap() error { return e.Err }

// ProviderError carries the error code and description returned by the token endpoint.
type ProviderError struct {
	Status      int
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("identity provider error %s (status %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("identity provider error %s: %s", e.Code, e.Description)
}

type ProviderUnreachableError struct {
	Err error
}

func (e *ProviderUnreachableError) Error() string {
	return fmt.Sprintf("identity provider unreachable: %v", e.Err)
}

func (e *ProviderUnreachableError) Unwrap() error { return e.Err }

// ValidationError maps request fields to the reason they were rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CodeOf returns the API error code for err, falling back to CodeInternal.
func CodeOf(err error) Code {
	var (
		duplicate   *DuplicateKeyError
		exists      *IdentityAlreadyExistsError
		creation    *IdentityCreationError
		unknownRole *UnknownRoleError
		persistence *PersistenceError
		publish     *EventPublishError
		provider    *ProviderError
		unreachable *ProviderUnreachableError
		validation  *ValidationError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &duplicate), errors.As(err, &exists):
		return CodeUserExists
	case errors.As(err, &unknownRole):
		return CodeInvalidRole
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &creation):
		return CodeKeycloak
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrUserNotFound):
		return CodeNotFound
	case errors.As(err, &persistence):
		return CodeDatabase
	case errors.As(err, &publish):
		return CodeKafka
	case errors.As(err, &provider), errors.As(err, &unreachable):
		return CodeKeycloak
	default:
		return CodeInternal
	}
}
