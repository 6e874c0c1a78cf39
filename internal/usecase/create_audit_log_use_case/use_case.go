package createauditlogusecase

import (
	"context"
	"encoding/json"
	"net"

	"bankauth/internal/store/pg/repository"

	"github.com/sqlc-dev/pqtype"
)

const (
	EventUserRegistered              = "user_registered"
	EventRegistrationFailedDuplicate = "registration_failed_duplicate"
	EventRegistrationCompensated     = "registration_compensated"
	EventLoginSucceeded              = "login_succeeded"
	EventLoginFailed                 = "login_failed"
)

type AuditWriter interface {
	CreateAuditLog(ctx context.Context, arg repository.CreateAuditLogParams) (repository.AuditLog, error)
}

type Params struct {
	Store AuditWriter
}

type Payload struct {
	UserID                   string
	EventType, Ip, UserAgent string
	Payload                  map[string]any
}

type CreateAuditLogUseCase struct {
	*Params
	*Payload
	ctx context.Context
}

func New(
	ctx context.Context,
	params *Params,
	payload *Payload,
) *CreateAuditLogUseCase {
	return &CreateAuditLogUseCase{
		Params:  params,
		ctx:     ctx,
		Payload: payload,
	}
}

func (u *CreateAuditLogUseCase) Execute() error {
	params := repository.CreateAuditLogParams{
		EventType: u.EventType,
		Ip:        parseInet(u.Ip),
	}

	if u.UserID != "" {
		userID := u.UserID
		params.UserID = &userID
	}

	if u.UserAgent != "" {
		ua := u.UserAgent
		params.Ua = &ua
	}

	if u.Payload.Payload != nil {
		jsonBytes, err := json.Marshal(u.Payload.Payload)
		if err == nil {
			params.Payload = pqtype.NullRawMessage{RawMessage: jsonBytes, Valid: true}
		}
	}

	_, err := u.Store.CreateAuditLog(u.ctx, params)
	return err
}

func parseInet(ip string) pqtype.Inet {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return pqtype.Inet{}
	}

	if v4 := parsed.To4(); v4 != nil {
		return pqtype.Inet{IPNet: net.IPNet{IP: v4, Mask: net.CIDRMask(32, 32)}, Valid: true}
	}
	return pqtype.Inet{IPNet: net.IPNet{IP: parsed, Mask: net.CIDRMask(128, 128)}, Valid: true}
}
