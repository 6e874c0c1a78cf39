package store

import (
	"errors"

	"bankauth/internal/failure"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

var constraintFields = map[string]string{
	"users_pkey":         failure.FieldIdentityNumber,
	"users_username_key": failure.FieldUsername,
	"users_email_key":    failure.FieldEmail,
}

// UniqueViolationField reports which user field a unique constraint
// violation is about.
func UniqueViolationField(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return "", false
	}

	if field, ok := constraintFields[pqErr.Constraint]; ok {
		return field, true
	}
	return failure.FieldIdentityNumber, true
}
