// Package custody hands settled resource sales to the external payout
// mechanism. Funds never move on the user balance; a sale is settled by
// transferring the proceeds out of the treasury through a vault.
package custody

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/factoria-games/factoria/internal/domain"
)

// Vault delivers a settled payout to the external custody mechanism.
// Transfer is called strictly after the sale has been durably recorded.
type Vault interface {
	Transfer(ctx context.Context, payout *domain.Payout) error
}

type logVault struct {
	log *slog.Logger
}

// NewLogVault builds a vault that only records the transfer. Used in
// development and in deployments where an operator settles payouts from
// the journal by hand.
func NewLogVault(log *slog.Logger) Vault {
	return &logVault{log: log}
}

func (v *logVault) Transfer(_ context.Context, payout *domain.Payout) error {
	if payout == nil {
		return fmt.Errorf("custody: nil payout")
	}

	log := v.log
	if log == nil {
		log = slog.Default()
	}

	log.Info("payout settled",
		slog.String("reference", payout.Reference),
		slog.Int64("user_id", payout.UserID),
		slog.String("address", payout.Address),
		slog.Int("resource_type", payout.ResourceType),
		slog.Uint64("units", payout.Units),
		slog.Uint64("amount", payout.Amount),
	)

	return nil
}
