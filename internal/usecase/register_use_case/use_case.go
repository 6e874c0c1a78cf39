package registerusecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bankauth/internal/failure"
	"bankauth/internal/kafka"
	"bankauth/internal/keycloak"
	"bankauth/internal/logger"
	"bankauth/internal/store"
	"bankauth/internal/store/pg/repository"
	"bankauth/internal/telemetry"
	createauditlogusecase "bankauth/internal/usecase/create_audit_log_use_case"
	"bankauth/internal/utility"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultCompensationTimeout = 10 * time.Second

var tracer = telemetry.Tracer("register")

type Params struct {
	Store      UserStore
	Tokens     TokenIssuer
	Identities IdentityProvider
	Events     EventPublisher
	// CompensationTimeout bounds the rollback steps, which run even after
	// the caller's context is cancelled.
	CompensationTimeout time.Duration
}

type Payload struct {
	IdentityNumber string
	Username       string
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Address        string
	PhoneNumber    string
	BirthDate      time.Time
	Roles          []string
	IP             string
	UserAgent      string
}

type Response struct {
	Confirmation string
	UserID       string
	IdentityID   string
	Roles        []string
}

type RegisterUseCase struct {
	*Params
	*Payload

	ctx context.Context
}

func New(
	ctx context.Context,
	params *Params,
	payload *Payload,
) *RegisterUseCase {
	return &RegisterUseCase{
		Params:  params,
		Payload: payload,
		ctx:     ctx,
	}
}

// Execute registers the user in the identity provider, the local store and
// the event stream. Either all three happen or, on failure after the
// identity was created, the identity is removed again and the original
// error is returned.
func (u *RegisterUseCase) Execute() (resp *Response, err error) {
	ctx, span := tracer.Start(u.ctx, "register",
		trace.WithAttributes(attribute.String("user.username", u.Username)))
	defer func() {
		telemetry.RecordRegistration(string(failure.CodeOf(err)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(failure.CodeOf(err)))
		}
		span.End()
	}()

	u.Email = utility.NormalizeEmail(u.Email)

	if err := u.checkUniqueness(ctx); err != nil {
		return nil, err
	}

	adminToken, err := u.issueAdminToken(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := u.createIdentity(ctx, adminToken)
	if err != nil {
		return nil, err
	}

	if err := u.persist(ctx); err != nil {
		u.compensate(ctx, adminToken, err)
		return nil, err
	}

	if err := u.publish(ctx); err != nil {
		u.removeLocalRecord(ctx)
		u.compensate(ctx, adminToken, err)
		return nil, err
	}

	u.audit(ctx, createauditlogusecase.EventUserRegistered, u.IdentityNumber, map[string]any{
		"username": u.Username,
		"email":    u.Email,
		"roles":    identity.Roles,
	})

	logger.Info().
		Str("user_id", u.IdentityNumber).
		Str("username", u.Username).
		Str("identity_id", identity.ID).
		Msg("user registered successfully")

	return &Response{
		Confirmation: fmt.Sprintf("User %s with ID %s has been added", u.Username, u.IdentityNumber),
		UserID:       u.IdentityNumber,
		IdentityID:   identity.ID,
		Roles:        identity.Roles,
	}, nil
}

func (u *RegisterUseCase) checkUniqueness(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "register.check_uniqueness")
	defer span.End()

	checks := []struct {
		field  string
		value  string
		exists func(context.Context, string) (bool, error)
	}{
		{field: failure.FieldIdentityNumber, value: u.IdentityNumber, exists: u.Store.UserExistsByID},
		{field: failure.FieldUsername, value: u.Username, exists: u.Store.UserExistsByUsername},
		{field: failure.FieldEmail, value: u.Email, exists: u.Store.UserExistsByEmail},
	}

	for _, check := range checks {
		exists, err := check.exists(ctx, check.value)
		if err != nil {
			logger.Error().
				Err(err).
				Str("field", check.field).
				Msg("database error while checking existing user")
			return &failure.PersistenceError{Op: "check " + check.field, Err: err}
		}
		if exists {
			logger.Warn().
				Str("field", check.field).
				Str("username", u.Username).
				Msg("attempted registration with existing " + check.field)
			u.audit(ctx, createauditlogusecase.EventRegistrationFailedDuplicate, "", map[string]any{
				"username": u.Username,
				"reason":   "duplicate " + check.field,
			})
			return &failure.DuplicateKeyError{Field: check.field}
		}
	}

	return nil
}

func (u *RegisterUseCase) issueAdminToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "register.admin_token")
	defer span.End()

	token, err := u.Tokens.IssueAdminToken(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("failed to obtain admin token")
		return "", &failure.IdentityCreationError{Username: u.Username, Err: err}
	}
	return token, nil
}

// createIdentity needs no compensation on failure: the identity client
// removes half-built identities itself.
func (u *RegisterUseCase) createIdentity(ctx context.Context, adminToken string) (*keycloak.Identity, error) {
	ctx, span := tracer.Start(ctx, "register.create_identity")
	defer span.End()

	identity, err := u.Identities.CreateIdentity(ctx, adminToken, keycloak.NewIdentity{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Password:  u.Password,
		Roles:     u.Roles,
	})
	if err != nil {
		var exists *failure.IdentityAlreadyExistsError
		if errors.As(err, &exists) {
			u.audit(ctx, createauditlogusecase.EventRegistrationFailedDuplicate, "", map[string]any{
				"username": u.Username,
				"reason":   "identity exists",
			})
		}
		logger.Error().
			Err(err).
			Str("username", u.Username).
			Msg("failed to create identity")
		return nil, err
	}

	span.SetAttributes(attribute.String("identity.id", identity.ID))
	return identity, nil
}

func (u *RegisterUseCase) persist(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "register.persist")
	defer span.End()

	_, err := u.Store.CreateUser(ctx, repository.CreateUserParams{
		ID:          u.IdentityNumber,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		BirthDate:   u.BirthDate,
	})
	if err == nil {
		return nil
	}

	if field, ok := store.UniqueViolationField(err); ok {
		logger.Warn().
			Str("field", field).
			Str("username", u.Username).
			Msg("duplicate registration attempt")
		return &failure.DuplicateKeyError{Field: field}
	}

	logger.Error().
		Err(err).
		Str("username", u.Username).
		Msg("failed to create user in database")
	return &failure.PersistenceError{Op: "insert user", Err: err}
}

func (u *RegisterUseCase) publish(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "register.publish_event")
	defer span.End()

	err := u.Events.PublishUserRegistered(ctx, kafka.UserRegisteredEvent{
		UserID:      u.IdentityNumber,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		BirthDate:   u.BirthDate.Format(time.DateOnly),
	})
	if err == nil {
		return nil
	}

	var publish *failure.EventPublishError
	if !errors.As(err, &publish) {
		err = &failure.EventPublishError{Err: err}
	}
	return err
}

func (u *RegisterUseCase) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := u.CompensationTimeout
	if timeout <= 0 {
		timeout = defaultCompensationTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (u *RegisterUseCase) removeLocalRecord(ctx context.Context) {
	ctx, cancel := u.detached(ctx)
	defer cancel()

	if err := u.Store.DeleteUser(ctx, u.IdentityNumber); err != nil {
		logger.Error().
			Err(err).
			Str("user_id", u.IdentityNumber).
			Msg("failed to remove local user record after publish failure")
	}
}

// compensate deletes the identity created earlier in the saga. Its own
// failure is logged and counted, never returned.
func (u *RegisterUseCase) compensate(ctx context.Context, adminToken string, cause error) {
	ctx, cancel := u.detached(ctx)
	defer cancel()

	ctx, span := tracer.Start(ctx, "register.compensate")
	defer span.End()

	err := u.Identities.DeleteIdentity(ctx, adminToken, u.Username)
	telemetry.RecordCompensation(err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compensation failed")
		logger.Error().
			Err(err).
			AnErr("cause", cause).
			Str("username", u.Username).
			Msg("compensation failed, identity may be orphaned")
	} else {
		logger.Warn().
			AnErr("cause", cause).
			Str("username", u.Username).
			Msg("registration rolled back, identity removed")
	}

	u.audit(ctx, createauditlogusecase.EventRegistrationCompensated, "", map[string]any{
		"username":    u.Username,
		"cause":       string(failure.CodeOf(cause)),
		"compensated": err == nil,
	})
}

func (u *RegisterUseCase) audit(ctx context.Context, eventType, userID string, payload map[string]any) {
	err := createauditlogusecase.New(ctx, &createauditlogusecase.Params{
		Store: u.Store,
	}, &createauditlogusecase.Payload{
		UserID:    userID,
		EventType: eventType,
		Ip:        u.IP,
		UserAgent: u.UserAgent,
		Payload:   payload,
	}).Execute()

	if err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("username", u.Username).
			Msg("failed to create audit log for registration")
	}
}
