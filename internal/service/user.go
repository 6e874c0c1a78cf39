package service

import (
	"context"
	"time"

	"bankauth/internal/store/pg/repository"
	"bankauth/internal/token"
	getuserinfousecase "bankauth/internal/usecase/get_user_info_use_case"
	loginusecase "bankauth/internal/usecase/login_use_case"
	refreshaccesstokenusecase "bankauth/internal/usecase/refresh_access_token_use_case"
	registerusecase "bankauth/internal/usecase/register_use_case"
	verifyaccesstokenusecase "bankauth/internal/usecase/verify_access_token_use_case"

	"github.com/redis/go-redis/v9"
)

// Repository is the slice of the Postgres queries the user flows need.
type Repository interface {
	registerusecase.UserStore
	getuserinfousecase.UserReader
}

// Tokens is implemented by *token.Service.
type Tokens interface {
	IssueAdminToken(ctx context.Context) (string, error)
	IssueUserToken(ctx context.Context, username, password string) (*token.Pair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*token.Pair, error)
	ValidateToken(ctx context.Context, accessToken string) bool
	Verify(ctx context.Context, accessToken string) (*token.Claims, error)
}

type Dependencies struct {
	Store      Repository
	Redis      *redis.Client
	Tokens     Tokens
	Identities registerusecase.IdentityProvider
	Events     registerusecase.EventPublisher

	UserCacheTTL        time.Duration
	CompensationTimeout time.Duration
}

type UserService struct {
	store      Repository
	redis      *redis.Client
	tokens     Tokens
	identities registerusecase.IdentityProvider
	events     registerusecase.EventPublisher

	userCacheTTL        time.Duration
	compensationTimeout time.Duration
}

func NewUserService(deps Dependencies) *UserService {
	return &UserService{
		store:               deps.Store,
		redis:               deps.Redis,
		tokens:              deps.Tokens,
		identities:          deps.Identities,
		events:              deps.Events,
		userCacheTTL:        deps.UserCacheTTL,
		compensationTimeout: deps.CompensationTimeout,
	}
}

func (s *UserService) RegisterUser(
	ctx context.Context,
	req registerusecase.Payload,
) (*registerusecase.Response, error) {
	return registerusecase.New(
		ctx,
		&registerusecase.Params{
			Store:               s.store,
			Tokens:              s.tokens,
			Identities:          s.identities,
			Events:              s.events,
			CompensationTimeout: s.compensationTimeout,
		},
		&req,
	).Execute()
}

func (s *UserService) LoginUser(ctx context.Context, req loginusecase.Payload) (*token.Pair, error) {
	return loginusecase.New(
		ctx,
		&loginusecase.Params{
			Tokens: s.tokens,
			Audit:  s.store,
		},
		&req,
	).Execute()
}

func (s *UserService) RefreshAccessToken(ctx context.Context, req refreshaccesstokenusecase.Payload) (*refreshaccesstokenusecase.Response, error) {
	return refreshaccesstokenusecase.
		New(
			ctx,
			&refreshaccesstokenusecase.Params{
				Tokens: s.tokens,
			},
			&req,
		).
		Execute()
}

func (s *UserService) VerifyAccessToken(ctx context.Context, req verifyaccesstokenusecase.Payload) (*verifyaccesstokenusecase.VerifyTokenResponse, error) {
	return verifyaccesstokenusecase.New(
		ctx,
		&verifyaccesstokenusecase.Params{Verifier: s.tokens},
		&req,
	).Execute()
}

// ValidateToken is the boolean check used by the gRPC surface.
func (s *UserService) ValidateToken(ctx context.Context, accessToken string) bool {
	return s.tokens.ValidateToken(ctx, accessToken)
}

func (s *UserService) GetUserInfo(ctx context.Context, search string) (*repository.User, error) {
	return getuserinfousecase.
		New(ctx,
			&getuserinfousecase.Params{
				Store:    s.store,
				Redis:    s.redis,
				CacheTTL: s.userCacheTTL,
			},
			&getuserinfousecase.Payload{Search: search},
		).
		Execute()
}
