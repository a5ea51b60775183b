// Package api exposes the ledger over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/factoria-games/factoria/internal/health"
	"github.com/factoria-games/factoria/internal/idempotency"
	"github.com/factoria-games/factoria/internal/service"
)

// Options wires the router's dependencies. Idempotency is optional;
// without it mutating requests simply execute every time.
type Options struct {
	Service        *service.Service
	Checker        *health.Checker
	Idempotency    idempotency.Manager
	IdempotencyTTL time.Duration
	Log            *slog.Logger
	SentryEnabled  bool
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	h := &handler{
		svc:           opts.Service,
		log:           log,
		sentryEnabled: opts.SentryEnabled,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		results := map[string]string{}
		if opts.Checker != nil {
			var healthy bool
			results, healthy = opts.Checker.Check(c.Request.Context())
			if !healthy {
				status = http.StatusServiceUnavailable
			}
		}
		c.JSON(status, gin.H{"checks": results})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/users/:id", h.getUser)
		v1.GET("/users/:id/factories", h.getUserFactories)
		v1.GET("/users/:id/referrers", h.getUserReferrers)
		v1.GET("/factories/:id", h.getFactory)
		v1.GET("/factories/:id/resources", h.getFactoryResources)
		v1.GET("/catalog", h.getCatalog)
		v1.GET("/catalog/levels", h.getCatalogLevels)
		v1.GET("/catalog/price", h.getCatalogPrice)
		v1.GET("/catalog/production", h.getCatalogProduction)
		v1.GET("/catalog/resource-price", h.getCatalogResourcePrice)
		v1.GET("/schedules/:name", h.getSchedule)
		v1.GET("/owner", h.getOwner)
		v1.GET("/treasury", h.getTreasury)

		mutating := v1.Group("")
		mutating.Use(idempotent(opts.Idempotency, opts.IdempotencyTTL))
		{
			mutating.POST("/users", h.register)
			mutating.POST("/deposit", h.deposit)
			mutating.POST("/factories", h.buyFactory)
			mutating.POST("/factories/:id/level-up", h.levelUp)
			mutating.POST("/collect", h.collect)
			mutating.POST("/sell", h.sell)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/treasury/deposit", h.fundTreasury)
			admin.POST("/clock/advance", h.advanceClock)
		}
	}

	return router
}
