// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the factoria ledger service.
type Config struct {
	AppEnv string

	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Custody  CustodyConfig  `mapstructure:"custody"`
	Ledger   LedgerConfig   `mapstructure:"ledger" validate:"required"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	IdempotencyTTL  time.Duration `mapstructure:"idempotency_ttl"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`

	MigrationsDir string `mapstructure:"migrations_dir"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode,
	)
}

// RedisConfig configures the Redis client used for idempotent ingress.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level  string           `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string           `mapstructure:"format" validate:"omitempty,oneof=text json"`
	File   LoggerFileConfig `mapstructure:"file"`
}

// LoggerFileConfig enables rotated file output next to stdout.
type LoggerFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// ClockConfig selects the call-time source. The manual mode backs
// deterministic deployments where the clock is advanced through the
// admin API instead of following the wall clock.
type ClockConfig struct {
	Mode string `mapstructure:"mode" validate:"omitempty,oneof=real manual"`
}

// CustodyConfig selects how settled payouts are handed to the external
// custody mechanism.
type CustodyConfig struct {
	Mode  string `mapstructure:"mode" validate:"omitempty,oneof=log queue"`
	Queue string `mapstructure:"queue"`
}

// LedgerConfig carries the deployment-fixed economy tables. Growth
// curves, commission schedules and event bindings are data, not code.
type LedgerConfig struct {
	Owner            string              `mapstructure:"owner" validate:"required"`
	MaxReferralDepth int                 `mapstructure:"max_referral_depth" validate:"gt=0"`
	Factories        []FactoryTypeConfig `mapstructure:"factories" validate:"min=1,dive"`
	ResourcePrices   []uint64            `mapstructure:"resource_prices" validate:"min=1"`
	Schedules        map[string][]uint64 `mapstructure:"schedules" validate:"min=1"`
	Events           map[string]string   `mapstructure:"events"`
}

// FactoryTypeConfig is the level table of one factory type.
type FactoryTypeConfig struct {
	Name   string        `mapstructure:"name" validate:"required"`
	Levels []LevelConfig `mapstructure:"levels" validate:"min=1,dive"`
}

// LevelConfig is one catalog row.
type LevelConfig struct {
	Price             uint64 `mapstructure:"price" validate:"gt=0"`
	ProductsPerMinute uint64 `mapstructure:"products_per_minute" validate:"gt=0"`
	BonusPerMinute    uint64 `mapstructure:"bonus_per_minute"`
}
