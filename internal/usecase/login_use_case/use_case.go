package loginusecase

import (
	"context"
	"errors"

	"bankauth/internal/failure"
	"bankauth/internal/logger"
	"bankauth/internal/token"
	createauditlogusecase "bankauth/internal/usecase/create_audit_log_use_case"
)

type TokenIssuer interface {
	IssueUserToken(ctx context.Context, username, password string) (*token.Pair, error)
}

type Params struct {
	Tokens TokenIssuer
	// Audit is optional.
	Audit createauditlogusecase.AuditWriter
}

type Payload struct {
	Username, Password string
	IP, UserAgent      string
}

type LoginUseCase struct {
	ctx context.Context

	*Params
	*Payload
}

func New(ctx context.Context, params *Params, payload *Payload) *LoginUseCase {
	return &LoginUseCase{ctx: ctx, Params: params, Payload: payload}
}

func (u *LoginUseCase) Execute() (*token.Pair, error) {
	pair, err := u.Tokens.IssueUserToken(u.ctx, u.Username, u.Password)
	if err != nil {
		if errors.Is(err, failure.ErrInvalidCredentials) {
			logger.Warn().
				Str("username", u.Username).
				Msg("login failed: invalid credentials")
		} else {
			logger.Error().
				Err(err).
				Str("username", u.Username).
				Msg("login failed")
		}
		u.audit(createauditlogusecase.EventLoginFailed, map[string]any{
			"username": u.Username,
			"reason":   string(failure.CodeOf(err)),
		})
		return nil, err
	}

	u.audit(createauditlogusecase.EventLoginSucceeded, map[string]any{"username": u.Username})

	logger.Info().Str("username", u.Username).Msg("login successful")
	return pair, nil
}

func (u *LoginUseCase) audit(eventType string, payload map[string]any) {
	if u.Audit == nil {
		return
	}

	err := createauditlogusecase.New(u.ctx, &createauditlogusecase.Params{
		Store: u.Audit,
	}, &createauditlogusecase.Payload{
		EventType: eventType,
		Ip:        u.IP,
		UserAgent: u.UserAgent,
		Payload:   payload,
	}).Execute()

	if err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Msg("failed to create audit log for login")
	}
}
