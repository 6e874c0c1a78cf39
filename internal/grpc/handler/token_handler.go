package handler

import (
	"context"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) bool
}

type TokenHandler struct {
	validator TokenValidator
}

func NewTokenHandler(validator TokenValidator) *TokenHandler {
	return &TokenHandler{validator: validator}
}

// ValidateToken never fails: an empty or bad token is simply not valid.
func (h *TokenHandler) ValidateToken(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if req.GetValue() == "" {
		return wrapperspb.Bool(false), nil
	}
	return wrapperspb.Bool(h.validator.ValidateToken(ctx, req.GetValue())), nil
}
