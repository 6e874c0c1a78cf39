package handler

import (
	"strings"
	"time"

	"bankauth/internal/failure"
	registerusecase "bankauth/internal/usecase/register_use_case"
	"bankauth/internal/utility"
)

type RegisterRequest struct {
	IdentityNumber string   `json:"idCard" validate:"required,max=32,identity"`
	Username       string   `json:"username" validate:"required,max=50"`
	Password       string   `json:"password" validate:"required"`
	FirstName      string   `json:"firstName" validate:"required,max=50"`
	LastName       string   `json:"lastName" validate:"required,max=50"`
	Address        string   `json:"address" validate:"max=255"`
	Email          string   `json:"email" validate:"required,max=254,email"`
	BirthDate      string   `json:"birthdate" validate:"required,datetime=2006-01-02,adult"`
	PhoneNumber    string   `json:"phoneNumber" validate:"omitempty,max=20"`
	Roles          []string `json:"roles"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// payload checks every field and returns all failures at once.
func (req *RegisterRequest) payload(now time.Time) (*registerusecase.Payload, error) {
	trimmed := *req
	for _, field := range []*string{
		&trimmed.IdentityNumber,
		&trimmed.Username,
		&trimmed.FirstName,
		&trimmed.LastName,
		&trimmed.Address,
		&trimmed.Email,
		&trimmed.BirthDate,
		&trimmed.PhoneNumber,
	} {
		*field = strings.TrimSpace(*field)
	}

	fields, err := utility.ValidateStruct(&trimmed, now)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &failure.ValidationError{Fields: fields}
	}

	birthDate, err := utility.ParseBirthDate(trimmed.BirthDate)
	if err != nil {
		return nil, &failure.ValidationError{Fields: map[string]string{"birthdate": err.Error()}}
	}

	return &registerusecase.Payload{
		IdentityNumber: trimmed.IdentityNumber,
		Username:       trimmed.Username,
		Email:          trimmed.Email,
		Password:       req.Password,
		FirstName:      trimmed.FirstName,
		LastName:       trimmed.LastName,
		Address:        trimmed.Address,
		PhoneNumber:    trimmed.PhoneNumber,
		BirthDate:      birthDate,
		Roles:          req.Roles,
	}, nil
}
