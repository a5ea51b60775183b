// Package logger builds the process-wide slog logger: stdout plus an
// optional rotated file, sensitive-attribute masking and an error-level
// fanout to Sentry.
package logger

import (
	"io"
	"log/slog"
	"os"

	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/factoria-games/factoria/pkg/config"
)

// New builds a logger from configuration. The level is shared through
// config.LevelVar so a config reload can adjust it at runtime.
func New(cfg config.LoggerConfig, sentryEnabled bool) *slog.Logger {
	if err := config.SetLogLevel(cfg.Level); err != nil {
		config.LevelVar.Set(slog.LevelInfo)
	}

	var out io.Writer = os.Stdout
	if cfg.File.Enabled {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: config.LevelVar}

	var base slog.Handler
	if cfg.Format == "text" {
		base = slog.NewTextHandler(out, opts)
	} else {
		base = slog.NewJSONHandler(out, opts)
	}

	handlers := []slog.Handler{NewMaskingHandler(base)}
	if sentryEnabled {
		sentryHandler := slogsentry.Option{Level: slog.LevelError}.NewSentryHandler()
		handlers = append(handlers, sentryHandler)
	}

	return slog.New(newFanout(handlers...))
}
