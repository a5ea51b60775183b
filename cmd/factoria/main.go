package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"

	"github.com/factoria-games/factoria/internal/api"
	"github.com/factoria-games/factoria/internal/custody"
	"github.com/factoria-games/factoria/internal/database"
	"github.com/factoria-games/factoria/internal/health"
	"github.com/factoria-games/factoria/internal/idempotency"
	"github.com/factoria-games/factoria/internal/ledger"
	"github.com/factoria-games/factoria/internal/service"
	"github.com/factoria-games/factoria/internal/store"
	"github.com/factoria-games/factoria/pkg/config"
	"github.com/factoria-games/factoria/pkg/graceful"
	"github.com/factoria-games/factoria/pkg/logger"
	"github.com/factoria-games/factoria/pkg/redis"

	_ "github.com/lib/pq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logger, cfg.Sentry.Enabled)
	slog.SetDefault(log)

	log.Info("starting factoria",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTP.Port),
		slog.String("clock_mode", cfg.Clock.Mode),
	)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to init sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		os.Exit(1)
	}

	migrator := database.NewMigrator(db, log)
	if err := migrator.ApplyDir(ctx, cfg.Database.MigrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	checker := health.NewChecker(log)
	checker.AddCheck("postgres", health.NewDBChecker(db))

	var idem idempotency.Manager
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := redisClient.Close(); cerr != nil {
				log.Error("error closing redis", slog.Any("error", cerr))
			}
		}()

		checker.AddCheck("redis", health.NewRedisChecker(redisClient))
		idem = idempotency.NewManager(idempotency.NewRedisStore(redisClient, log), log)
	}

	ledgerCfg, err := cfg.Ledger.Build()
	if err != nil {
		log.Error("invalid economy tables", slog.Any("error", err))
		os.Exit(1)
	}

	l, err := ledger.New(ledgerCfg)
	if err != nil {
		log.Error("failed to build ledger", slog.Any("error", err))
		os.Exit(1)
	}

	clk := buildClock(cfg.Clock)
	vault := buildVault(cfg, log)

	svc := service.New(l, store.NewPostgres(db, log), vault, clk, log)
	if err := svc.Restore(ctx); err != nil {
		log.Error("failed to restore ledger state", slog.Any("error", err))
		os.Exit(1)
	}

	router := api.NewRouter(api.Options{
		Service:        svc,
		Checker:        checker,
		Idempotency:    idem,
		IdempotencyTTL: cfg.HTTP.IdempotencyTTL,
		Log:            log,
		SentryEnabled:  cfg.Sentry.Enabled,
	})

	server := graceful.NewServer(log, &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.HTTP.ShutdownTimeout)

	if err := server.ListenAndServe(ctx); err != nil {
		log.Error("http server failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("factoria stopped")
}

// buildClock returns the wall clock, or a manual clock seeded with the
// current time so a restart never rewinds behind persisted baselines.
func buildClock(cfg config.ClockConfig) clock.Clock {
	if cfg.Mode == "manual" {
		mock := clock.NewMock()
		mock.Set(time.Now())
		return mock
	}
	return clock.New()
}

func buildVault(cfg *config.Config, log *slog.Logger) custody.Vault {
	if cfg.Custody.Mode == "queue" {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return custody.NewQueueVault(client, cfg.Custody.Queue, log)
	}
	return custody.NewLogVault(log)
}
