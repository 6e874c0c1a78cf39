package refreshaccesstokenusecase

import (
	"context"

	"bankauth/internal/failure"
	"bankauth/internal/logger"
	"bankauth/internal/token"
)

type TokenService interface {
	ValidateToken(ctx context.Context, accessToken string) bool
	RefreshToken(ctx context.Context, refreshToken string) (*token.Pair, error)
}

type Params struct {
	Tokens TokenService
}

type Payload struct {
	AccessToken  string
	RefreshToken string
}

// Response.Pair is nil when the access token was still valid and nothing
// was exchanged.
type Response struct {
	Refreshed bool
	Pair      *token.Pair
}

type RefreshAccessTokenUseCase struct {
	ctx context.Context

	*Params
	*Payload
}

func New(ctx context.Context, params *Params, payload *Payload) *RefreshAccessTokenUseCase {
	return &RefreshAccessTokenUseCase{ctx: ctx, Params: params, Payload: payload}
}

func (u *RefreshAccessTokenUseCase) Execute() (*Response, error) {
	if u.AccessToken == "" || u.RefreshToken == "" {
		return nil, failure.ErrUnauthorized
	}

	if u.Tokens.ValidateToken(u.ctx, u.AccessToken) {
		logger.Debug().Msg("access token still valid, refresh skipped")
		return &Response{Refreshed: false}, nil
	}

	pair, err := u.Tokens.RefreshToken(u.ctx, u.RefreshToken)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("token refresh failed")
		return nil, err
	}

	logger.Info().Msg("tokens refreshed successfully")
	return &Response{Refreshed: true, Pair: pair}, nil
}
