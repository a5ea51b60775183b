package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/factoria-games/factoria/internal/idempotency"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests labeled by route, method and status",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions per route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// requestLogger logs every request with a correlation ID and feeds the
// HTTP metrics.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		correlationID := uuid.NewString()
		c.Set("correlation_id", correlationID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		status := c.Writer.Status()
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		log.Info("request",
			slog.String("correlation_id", correlationID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// captureWriter buffers the response so it can be recorded for replay.
type captureWriter struct {
	gin.ResponseWriter
	body   bytes.Buffer
	status int
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// idempotent replays the recorded response when a request carries an
// already seen Idempotency-Key. Requests without the header execute
// normally.
func idempotent(manager idempotency.Manager, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Idempotency-Key")
		if key == "" || manager == nil {
			c.Next()
			return
		}

		var executed bool
		result, err := manager.Execute(c.Request.Context(), key, ttl, func(_ context.Context) (int, []byte, error) {
			executed = true
			writer := &captureWriter{ResponseWriter: c.Writer, status: http.StatusOK}
			c.Writer = writer
			c.Next()
			c.Writer = writer.ResponseWriter
			return writer.status, writer.body.Bytes(), nil
		})
		if err != nil {
			// Once the handler has run its response is already on the
			// wire; a failed record write only costs the replay.
			if executed {
				return
			}
			if errors.Is(err, idempotency.ErrRequestInProgress) {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "idempotency store unavailable"})
			return
		}

		if result.FromCache {
			c.Data(result.Status, "application/json; charset=utf-8", result.Body)
			c.Abort()
		}
	}
}
