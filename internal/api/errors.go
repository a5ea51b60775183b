package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	"github.com/factoria-games/factoria/internal/ledger"
	"github.com/factoria-games/factoria/internal/service"
)

// respondError maps domain errors onto HTTP statuses. Unknown errors
// are reported to Sentry and hidden behind a generic 500.
func (h *handler) respondError(c *gin.Context, err error) {
	status, message := classify(err)

	if status == http.StatusInternalServerError {
		h.log.Error("unhandled api error",
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		if h.sentryEnabled {
			sentry.CaptureException(err)
		}
		message = "internal error"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ledger.ErrUnknownUser),
		errors.Is(err, ledger.ErrUnknownReferrer):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, ledger.ErrAlreadyRegistered),
		errors.Is(err, ledger.ErrMaxLevelReached),
		errors.Is(err, ledger.ErrInsufficientTreasury):
		return http.StatusConflict, err.Error()
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrManualClockDisabled):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, ""
	}
}
