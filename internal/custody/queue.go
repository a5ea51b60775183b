package custody

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/factoria-games/factoria/internal/domain"
)

// TaskTypePayout is the asynq task type consumed by the payout worker
// fleet that holds the hot wallet keys.
const TaskTypePayout = "custody:payout"

// PayoutPayload is the task body for a single settlement.
type PayoutPayload struct {
	Reference    string `json:"reference"`
	UserID       int64  `json:"user_id"`
	Address      string `json:"address"`
	ResourceType int    `json:"resource_type"`
	Units        uint64 `json:"units"`
	Amount       uint64 `json:"amount"`
}

// NewPayoutTask builds the queue task for a payout.
func NewPayoutTask(payout *domain.Payout, queue string) (*asynq.Task, error) {
	payload, err := json.Marshal(PayoutPayload{
		Reference:    payout.Reference,
		UserID:       payout.UserID,
		Address:      payout.Address,
		ResourceType: payout.ResourceType,
		Units:        payout.Units,
		Amount:       payout.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payout task: %w", err)
	}

	return asynq.NewTask(TaskTypePayout, payload, asynq.Queue(queue)), nil
}

// Enqueuer is the minimal queue surface the vault needs. *asynq.Client
// satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type queueVault struct {
	client Enqueuer
	queue  string
	log    *slog.Logger
}

// NewQueueVault builds a vault that enqueues payouts for the external
// settlement workers. The payout reference doubles as the task ID, so a
// redelivered transfer collapses into the original task.
func NewQueueVault(client Enqueuer, queue string, log *slog.Logger) Vault {
	return &queueVault{
		client: client,
		queue:  queue,
		log:    log,
	}
}

func (v *queueVault) Transfer(ctx context.Context, payout *domain.Payout) error {
	if payout == nil {
		return fmt.Errorf("custody: nil payout")
	}

	task, err := NewPayoutTask(payout, v.queue)
	if err != nil {
		return err
	}

	info, err := v.client.EnqueueContext(ctx, task, asynq.TaskID(payout.Reference))
	if err != nil {
		return fmt.Errorf("enqueue payout %s: %w", payout.Reference, err)
	}

	if v.log != nil {
		v.log.Info("payout enqueued",
			slog.String("reference", payout.Reference),
			slog.String("queue", info.Queue),
			slog.Uint64("amount", payout.Amount),
		)
	}

	return nil
}
