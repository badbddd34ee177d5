package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	ServerPort      string        `envconfig:"SERVER_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	MySQLDSN string `envconfig:"MYSQL_DSN" default:"user:password@tcp(localhost:3306)/users?charset=utf8mb4&parseTime=True&loc=UTC"`

	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB      int           `envconfig:"REDIS_DB" default:"0"`
	RedisPass    string        `envconfig:"REDIS_PASSWORD"`
	UserCacheTTL time.Duration `envconfig:"USER_CACHE_TTL" default:"5m"`

	JWTSecret       string `envconfig:"JWT_SECRET"`
	BcryptCost      int    `envconfig:"BCRYPT_COST" default:"10"`
	HashConcurrency int64  `envconfig:"HASH_CONCURRENCY" default:"0"`

	SwaggerHost string `envconfig:"SWAGGER_HOST"`

	SeedAdminEmail     string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@example.com"`
	SeedAdminPassword  string `envconfig:"SEED_ADMIN_PASSWORD"`
	SeedAdminFirstName string `envconfig:"SEED_ADMIN_FIRST_NAME" default:"System"`
	SeedAdminLastName  string `envconfig:"SEED_ADMIN_LAST_NAME" default:"Administrator"`
}

// Load builds Config from environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
