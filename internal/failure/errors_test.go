package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: ""},
		{name: "duplicate field", err: &DuplicateKeyError{Field: FieldEmail}, want: CodeUserExists},
		{name: "identity exists", err: &IdentityAlreadyExistsError{Username: "jdoe"}, want: CodeUserExists},
		{name: "identity creation", err: &IdentityCreationError{Username: "jdoe", Status: 500}, want: CodeKeycloak},
		{name: "admin token rejected", err: &IdentityCreationError{Username: "jdoe", Err: ErrInvalidCredentials}, want: CodeKeycloak},
		{name: "unknown role", err: &UnknownRoleError{Roles: []string{"auditor"}}, want: CodeInvalidRole},
		{name: "persistence", err: &PersistenceError{Op: "insert user", Err: errors.New("conn reset")}, want: CodeDatabase},
		{name: "publish", err: &EventPublishError{Topic: "user-registered", Err: context.DeadlineExceeded}, want: CodeKafka},
		{name: "provider", err: &ProviderError{Status: 400, Code: "invalid_grant"}, want: CodeKeycloak},
		{name: "unreachable", err: &ProviderUnreachableError{Err: errors.New("dial tcp")}, want: CodeKeycloak},
		{name: "invalid credentials", err: fmt.Errorf("login: %w", ErrInvalidCredentials), want: CodeInvalidCredentials},
		{name: "validation", err: &ValidationError{Fields: map[string]string{"email": "email should be valid"}}, want: CodeValidation},
		{name: "unauthorized", err: ErrUnauthorized, want: CodeUnauthorized},
		{name: "not found", err: ErrUserNotFound, want: CodeNotFound},
		{name: "unknown", err: errors.New("boom"), want: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestDuplicateKeyError_NamesField(t *testing.T) {
	err := fmt.Errorf("register: %w", &DuplicateKeyError{Field: FieldUsername})

	var duplicate *DuplicateKeyError
	assert.True(t, errors.As(err, &duplicate))
	assert.Equal(t, "a user with this username already exists", duplicate.Error())
}

func TestFailure_WithErr(t *testing.T) {
	cause := errors.New("connection refused")
	f := DatabaseInitializationError.WithErr(cause)

	assert.ErrorIs(t, f, cause)
	assert.Equal(t, "database failed to init: connection refused", f.Error())
	assert.Nil(t, DatabaseInitializationError.Err, "declarations stay untouched")
}
