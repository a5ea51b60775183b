// Package idempotency makes ledger mutations safe to retry: the first
// request under a key executes, concurrent duplicates are rejected and
// later duplicates replay the recorded response.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrRequestInProgress is returned when the same key is currently being
// executed by another request.
var ErrRequestInProgress = errors.New("request with this key is already in progress")

// Operation produces the response body and HTTP status to record under
// the key.
type Operation func(ctx context.Context) (status int, body []byte, err error)

// Result is the outcome of Execute: either the fresh operation output
// or a replay of the recorded one.
type Result struct {
	Status    int
	Body      []byte
	FromCache bool
}

// Manager serializes operations per idempotency key.
type Manager interface {
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

// NewManager builds a Manager on top of a record store.
func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

const lockTTL = 5 * time.Minute

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return &Result{
			Status:    record.Status,
			Body:      record.Response,
			FromCache: true,
		}, nil
	}

	locked, err := m.store.Lock(ctx, key, lockTTL)
	if err != nil {
		return nil, err
	}

	// Lock held by a concurrent request that has not recorded its
	// outcome yet. Failed runs release the lock without a record, so
	// the client can retry after the rejection.
	if !locked {
		return nil, ErrRequestInProgress
	}

	status, body, err := fn(ctx)
	if err != nil {
		if releaseErr := m.store.ReleaseLock(ctx, key); releaseErr != nil {
			m.log.Error("failed to release idempotency lock", slog.String("key", key), slog.Any("error", releaseErr))
		}
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{Status: status, Response: body}, ttl); err != nil {
		return nil, err
	}

	return &Result{
		Status:    status,
		Body:      body,
		FromCache: false,
	}, nil
}
