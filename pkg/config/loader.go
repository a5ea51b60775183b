package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultEnv       = "development"
	defaultConfigDir = "./configs"
)

// Load reads the YAML file for the current APP_ENV from ./configs and
// overlays environment variables on top of it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = defaultEnv
	}

	return LoadFile(fmt.Sprintf("%s/%s.yaml", defaultConfigDir, env), env)
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path, env string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	cfg := &Config{AppEnv: env}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	watch(v)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.idempotency_ttl", "24h")

	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations_dir", "./migrations")

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.pool_timeout", "4s")
	v.SetDefault("redis.idle_timeout", "5m")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	v.SetDefault("clock.mode", "real")
	v.SetDefault("custody.mode", "log")
	v.SetDefault("custody.queue", "custody:payouts")

	v.SetDefault("ledger.max_referral_depth", 5)
}

// watch reloads the log level when the config file changes on disk.
// Everything else is fixed for the lifetime of the process: the economy
// tables shape persisted state and must not drift under a live ledger.
func watch(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		level := v.GetString("logger.level")
		if err := SetLogLevel(level); err != nil {
			slog.Warn("config reload ignored", "file", e.Name, "error", err)
			return
		}
		slog.Info("log level updated", "file", e.Name, "level", level)
	})
	v.WatchConfig()
}

// LevelVar is the process-wide log level, shared with the logger setup.
var LevelVar = new(slog.LevelVar)

// SetLogLevel parses and applies a level name to LevelVar.
func SetLogLevel(name string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("parse log level %q: %w", name, err)
	}
	LevelVar.Set(level)
	return nil
}
