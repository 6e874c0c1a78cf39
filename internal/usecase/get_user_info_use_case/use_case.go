package getuserinfousecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankauth/internal/constants"
	"bankauth/internal/failure"
	"bankauth/internal/logger"
	"bankauth/internal/store/pg/repository"
	"bankauth/internal/utility"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

type UserReader interface {
	GetUserByUsername(ctx context.Context, username string) (repository.User, error)
	GetUserByEmail(ctx context.Context, email string) (repository.User, error)
}

type Params struct {
	Store UserReader
	// Redis is optional; a nil client disables caching.
	Redis    *redis.Client
	CacheTTL time.Duration
}

// Payload.Search is looked up as an email when it looks like one, otherwise
// as a username.
type Payload struct {
	Search string
}

type GetUserInfoUseCase struct {
	*Params
	*Payload
	ctx context.Context
}

func New(ctx context.Context, params *Params, payload *Payload) *GetUserInfoUseCase {
	return &GetUserInfoUseCase{
		Params:  params,
		Payload: payload,
		ctx:     ctx,
	}
}

func (u *GetUserInfoUseCase) Execute() (*repository.User, error) {
	search := strings.TrimSpace(u.Search)
	if search == "" {
		return nil, &failure.ValidationError{Fields: map[string]string{"search": utility.ErrRequired.Error()}}
	}

	byEmail := utility.IsEmail(search)
	if byEmail {
		search = utility.NormalizeEmail(search)
	}

	cacheKey := fmt.Sprintf(constants.RedisKeyUserByUsername, search)
	if byEmail {
		cacheKey = fmt.Sprintf(constants.RedisKeyUserByEmail, search)
	}

	if user, ok := u.fromCache(cacheKey); ok {
		return user, nil
	}

	var (
		user repository.User
		err  error
	)
	if byEmail {
		user, err = u.Store.GetUserByEmail(u.ctx, search)
	} else {
		user, err = u.Store.GetUserByUsername(u.ctx, search)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, failure.ErrUserNotFound
		}
		logger.Error().
			Err(err).
			Str("search", search).
			Msg("database error while fetching user")
		return nil, &failure.PersistenceError{Op: "get user", Err: err}
	}

	u.toCache(cacheKey, &user)
	return &user, nil
}

func (u *GetUserInfoUseCase) fromCache(key string) (*repository.User, bool) {
	if u.Redis == nil {
		return nil, false
	}

	cachedData, err := u.Redis.Get(u.ctx, key).Result()
	if err != nil || cachedData == "" {
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("key", key).Msg("failed to read user cache")
		}
		return nil, false
	}

	var user repository.User
	if err := json.Unmarshal([]byte(cachedData), &user); err != nil {
		return nil, false
	}

	logger.Debug().Str("key", key).Msg("user fetched from cache")
	return &user, true
}

func (u *GetUserInfoUseCase) toCache(key string, user *repository.User) {
	if u.Redis == nil {
		return
	}

	ttl := u.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	userData, err := json.Marshal(user)
	if err != nil {
		return
	}

	if err := u.Redis.Set(u.ctx, key, userData, ttl).Err(); err != nil {
		logger.Warn().
			Err(err).
			Str("key", key).
			Msg("failed to cache user data in redis")
	}
}
