package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bankauth/internal/constants"
	"bankauth/internal/failure"
	"bankauth/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	RolePolicyDrop   = "drop"
	RolePolicyStrict = "strict"
)

type KeycloakConfig struct {
	URL           string
	Realm         string
	ClientID      string
	ClientSecret  string
	AdminUsername string
	AdminPassword string
	DefaultRole   string
	RolePolicy    string
	HTTPTimeout   time.Duration
}

type TokenConfig struct {
	Issuer  string
	JWKSURL string
}

type KafkaConfig struct {
	Brokers        []string
	Topic          string
	PublishTimeout time.Duration
	VerifyTopic    bool
}

type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

type CookieConfig struct {
	Secure bool
	MaxAge int
}

type Config struct {
	IsDevelopment        bool
	Port                 string
	GRPCPort             string
	DBConn               string
	DBTimeout            time.Duration
	RunMigrationsOnStart bool
	Redis                RedisConfig
	Kafka                KafkaConfig
	Keycloak             KeycloakConfig
	Token                TokenConfig
	Cookie               CookieConfig
	AllowedOrigins       []string
	LoginRateLimit       int
	OTelEndpoint         string
}

// rawConfig mirrors the environment one-to-one; Config is derived from it.
type rawConfig struct {
	Env                  string        `env:"ENV" envDefault:"development"`
	Port                 string        `env:"PORT" envDefault:"8080"`
	GRPCPort             string        `env:"GRPC_PORT" envDefault:"50051"`
	DBConn               string        `env:"DB_CONN,required,notEmpty"`
	DBTimeout            time.Duration `env:"DB_TIMEOUT" envDefault:"5s"`
	RunMigrationsOnStart bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	RedisURL             string        `env:"REDIS_URL"`
	UserCacheTTL         time.Duration `env:"USER_CACHE_TTL" envDefault:"5m"`
	KafkaBrokers         []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaTopic           string        `env:"KAFKA_TOPIC" envDefault:"user-registered"`
	KafkaPublishTimeout  time.Duration `env:"KAFKA_PUBLISH_TIMEOUT" envDefault:"5s"`
	KafkaVerifyTopic     bool          `env:"KAFKA_VERIFY_TOPIC" envDefault:"false"`
	KeycloakURL          string        `env:"KEYCLOAK_URL,required,notEmpty"`
	KeycloakRealm        string        `env:"KEYCLOAK_REALM,required,notEmpty"`
	KeycloakClientID     string        `env:"KEYCLOAK_CLIENT_ID,required,notEmpty"`
	KeycloakClientSecret string        `env:"KEYCLOAK_CLIENT_SECRET"`
	KeycloakAdminUser    string        `env:"KEYCLOAK_ADMIN_USERNAME,required,notEmpty"`
	KeycloakAdminPass    string        `env:"KEYCLOAK_ADMIN_PASSWORD,required,notEmpty"`
	KeycloakDefaultRole  string        `env:"KEYCLOAK_DEFAULT_ROLE" envDefault:"user"`
	KeycloakHTTPTimeout  time.Duration `env:"KEYCLOAK_HTTP_TIMEOUT" envDefault:"10s"`
	RolePolicy           string        `env:"ROLE_POLICY" envDefault:"drop"`
	JWTIssuer            string        `env:"JWT_ISSUER"`
	JWKSURL              string        `env:"JWKS_URL"`
	CookieSecure         bool          `env:"COOKIE_SECURE" envDefault:"true"`
	CookieMaxAge         int           `env:"COOKIE_MAX_AGE" envDefault:"1800"`
	AllowedOrigins       string        `env:"CORS_ALLOWED_ORIGINS"`
	LoginRateLimit       int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	OTelEndpoint         string        `env:"OTEL_ENDPOINT"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		failure.EnvironmentLocalFileError.Warn()
	}

	return parse(env.Options{})
}

// FromMap builds a Config from an explicit environment, ignoring the process one.
func FromMap(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	var raw rawConfig
	if err := env.ParseWithOptions(&raw, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{
		IsDevelopment:        raw.Env == constants.DEVELOPMENT,
		Port:                 raw.Port,
		GRPCPort:             raw.GRPCPort,
		DBConn:               raw.DBConn,
		DBTimeout:            raw.DBTimeout,
		RunMigrationsOnStart: raw.RunMigrationsOnStart,
		Redis: RedisConfig{
			URL:      raw.RedisURL,
			CacheTTL: raw.UserCacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers:        trimAll(raw.KafkaBrokers),
			Topic:          raw.KafkaTopic,
			PublishTimeout: raw.KafkaPublishTimeout,
			VerifyTopic:    raw.KafkaVerifyTopic,
		},
		Keycloak: KeycloakConfig{
			URL:           strings.TrimRight(raw.KeycloakURL, "/"),
			Realm:         raw.KeycloakRealm,
			ClientID:      raw.KeycloakClientID,
			ClientSecret:  raw.KeycloakClientSecret,
			AdminUsername: raw.KeycloakAdminUser,
			AdminPassword: raw.KeycloakAdminPass,
			DefaultRole:   raw.KeycloakDefaultRole,
			RolePolicy:    strings.ToLower(raw.RolePolicy),
			HTTPTimeout:   raw.KeycloakHTTPTimeout,
		},
		Cookie: CookieConfig{
			Secure: raw.CookieSecure,
			MaxAge: raw.CookieMaxAge,
		},
		AllowedOrigins: parseAllowedOrigins(raw.AllowedOrigins),
		LoginRateLimit: raw.LoginRateLimit,
		OTelEndpoint:   raw.OTelEndpoint,
	}

	cfg.Token.Issuer = raw.JWTIssuer
	if cfg.Token.Issuer == "" {
		cfg.Token.Issuer = cfg.Keycloak.URL + "/realms/" + cfg.Keycloak.Realm
	}
	cfg.Token.JWKSURL = raw.JWKSURL
	if cfg.Token.JWKSURL == "" {
		cfg.Token.JWKSURL = cfg.Token.Issuer + "/protocol/openid-connect/certs"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.IsDevelopment {
		logger.Info().Msg("service is running in development mode")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Keycloak.URL); err != nil {
		errs = append(errs, fmt.Errorf("KEYCLOAK_URL is not a valid URL: %w", err))
	}
	if _, err := url.ParseRequestURI(c.Token.JWKSURL); err != nil {
		errs = append(errs, fmt.Errorf("JWKS_URL is not a valid URL: %w", err))
	}
	if c.Keycloak.RolePolicy != RolePolicyDrop && c.Keycloak.RolePolicy != RolePolicyStrict {
		errs = append(errs, fmt.Errorf("ROLE_POLICY must be %q or %q, got %q", RolePolicyDrop, RolePolicyStrict, c.Keycloak.RolePolicy))
	}
	if c.Keycloak.DefaultRole == "" {
		errs = append(errs, errors.New("KEYCLOAK_DEFAULT_ROLE must not be empty"))
	}
	if len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must list at least one broker"))
	}
	if c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC must not be empty"))
	}
	if c.Kafka.PublishTimeout <= 0 {
		errs = append(errs, errors.New("KAFKA_PUBLISH_TIMEOUT must be positive"))
	}
	if c.Keycloak.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("KEYCLOAK_HTTP_TIMEOUT must be positive"))
	}
	if c.Cookie.MaxAge < 0 {
		errs = append(errs, errors.New("COOKIE_MAX_AGE must not be negative"))
	}
	if c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must be positive"))
	}

	return errors.Join(errs...)
}

func parseAllowedOrigins(originsEnv string) []string {
	if originsEnv == "" {
		return []string{}
	}

	return trimAll(strings.Split(originsEnv, ","))
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))

	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
