package store

import (
	"context"
	"fmt"
	"time"

	"bankauth/internal/config"
	"bankauth/internal/logger"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
}

// InitRedisClient connects to cfg.URL. An empty URL returns a nil client,
// which callers treat as "cache disabled".
func InitRedisClient(ctx context.Context, cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info().Msg("redis url not set, user cache disabled")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info().Msg("redis successfully connected")
	return &RedisClient{Client: client}, nil
}

func (r *RedisClient) Close() error {
	if r != nil && r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
