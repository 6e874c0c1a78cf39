package verifyaccesstokenusecase

import (
	"context"
	"fmt"
	"time"

	"bankauth/internal/failure"
	"bankauth/internal/logger"
	"bankauth/internal/telemetry"
	"bankauth/internal/token"
)

type Verifier interface {
	Verify(ctx context.Context, accessToken string) (*token.Claims, error)
}

type Params struct {
	Verifier Verifier
}

type Payload struct {
	Token string
}

type VerifyTokenResponse struct {
	Valid     bool
	Subject   string
	Username  string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

type VerifyAccessTokenUseCase struct {
	ctx context.Context

	*Params
	*Payload
}

func New(ctx context.Context, params *Params, payload *Payload) *VerifyAccessTokenUseCase {
	return &VerifyAccessTokenUseCase{ctx: ctx, Params: params, Payload: payload}
}

func (u *VerifyAccessTokenUseCase) Execute() (*VerifyTokenResponse, error) {
	if u.Token == "" {
		return nil, failure.ErrUnauthorized
	}

	claims, err := u.Verifier.Verify(u.ctx, u.Token)
	telemetry.RecordTokenValidation(err == nil)
	if err != nil {
		logger.Debug().
			Err(err).
			Msg("access token rejected")
		return nil, fmt.Errorf("%w: %v", failure.ErrUnauthorized, err)
	}

	return &VerifyTokenResponse{
		Valid:     true,
		Subject:   claims.Subject,
		Username:  claims.Username(),
		Email:     claims.Email,
		Roles:     claims.Roles(),
		ExpiresAt: claims.Expiry(),
	}, nil
}
