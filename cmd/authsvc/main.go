package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bankauth/internal/config"
	"bankauth/internal/failure"
	grpcserver "bankauth/internal/grpc"
	"bankauth/internal/jwks"
	"bankauth/internal/kafka"
	"bankauth/internal/keycloak"
	"bankauth/internal/logger"
	"bankauth/internal/server"
	"bankauth/internal/service"
	"bankauth/internal/store"
	"bankauth/internal/telemetry"
	"bankauth/internal/token"

	"github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout     = 30 * time.Second
	topicCheckTimeout   = 10 * time.Second
	compensationTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(true)
		failure.ConfigurationError.WithErr(err).LogFatal()
	}
	logger.Init(cfg.IsDevelopment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTelEndpoint)
	if err != nil {
		failure.TracingSetupError.WithErr(err).Warn()
	}

	db, err := store.InitializeDB(ctx, cfg)
	if err != nil {
		var migration *store.MigrationError
		if errors.As(err, &migration) {
			failure.DatabaseMigrationError.WithErr(err).LogFatal()
		}
		failure.DatabaseInitializationError.WithErr(err).LogFatal()
	}
	defer db.Close()

	var cache *redis.Client
	redisClient, err := store.InitRedisClient(ctx, cfg.Redis)
	if err != nil {
		failure.RedisClientError.WithErr(err).Warn()
	} else if redisClient != nil {
		cache = redisClient.Client
		defer redisClient.Close()
	}

	checkTopic(ctx, cfg.Kafka)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		PublishTimeout: cfg.Kafka.PublishTimeout,
	})
	defer producer.Close()

	identities := keycloak.NewClient(cfg.Keycloak, nil)
	keys := jwks.New(cfg.Token.JWKSURL, &http.Client{Timeout: cfg.Keycloak.HTTPTimeout})
	if err := keys.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("signing keys not loaded at startup, will retry on first validation")
	}

	tokens := token.NewService(token.Params{
		Exchanger:     identities,
		Keys:          keys,
		Issuer:        cfg.Token.Issuer,
		AdminUsername: cfg.Keycloak.AdminUsername,
		AdminPassword: cfg.Keycloak.AdminPassword,
	})

	users := service.NewUserService(service.Dependencies{
		Store:               db.Queries,
		Redis:               cache,
		Tokens:              tokens,
		Identities:          identities,
		Events:              producer,
		UserCacheTTL:        cfg.Redis.CacheTTL,
		CompensationTimeout: compensationTimeout,
	})

	httpServer := server.New(cfg, users)

	grpcServer, err := grpcserver.NewServer(cfg, users)
	if err != nil {
		failure.FailedToStartServerError.WithErr(err).LogFatal()
	}

	go func() {
		logger.Info().Str("addr", httpServer.ServerInstance.Addr).Msg("starting http server")
		if err := httpServer.ServerInstance.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failure.FailedToStartServerError.WithErr(err).LogFatal()
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			failure.FailedToStartServerError.WithErr(err).LogFatal()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	grpcServer.Stop()

	if err := httpServer.ServerInstance.Shutdown(shutdownCtx); err != nil {
		failure.ForcedShutdownServerError.WithErr(err).LogError()
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("failed to flush traces")
	}

	logger.Info().Msg("servers stopped gracefully")
}

// checkTopic warns when the registration topic is missing, or exits when
// the configuration demands that it exists.
func checkTopic(ctx context.Context, cfg config.KafkaConfig) {
	ctx, cancel := context.WithTimeout(ctx, topicCheckTimeout)
	defer cancel()

	exists, err := kafka.TopicExists(ctx, cfg.Brokers, cfg.Topic)
	switch {
	case err != nil:
		logger.Warn().Err(err).Str("topic", cfg.Topic).Msg("could not verify kafka topic")
		if cfg.VerifyTopic {
			failure.KafkaTopicMissingError.WithErr(err).LogFatal()
		}
	case !exists && cfg.VerifyTopic:
		failure.KafkaTopicMissingError.LogFatal()
	case !exists:
		failure.KafkaTopicMissingError.Warn()
	default:
		logger.Info().Str("topic", cfg.Topic).Msg("kafka topic verified")
	}
}
