package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/factoria-games/factoria/pkg/redis"
)

// Record is a completed operation outcome: the HTTP status and the
// response body to replay.
type Record struct {
	Status   int
	Response []byte
}

// Store persists idempotency records and the per-key execution lock.
type Store interface {
	Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	ReleaseLock(ctx context.Context, key string) error
}

// RedisStore keeps records in Redis hashes with a TTL.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

// NewRedisStore builds a Redis-backed record store.
func NewRedisStore(client *redis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, lockKey(key), 1, lockTTL)
	if err != nil {
		s.log.Error("failed to acquire idempotency lock", slog.String("key", key), slog.Any("error", err))
		return false, err
	}

	return acquired, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	result, err := s.client.HGetAll(ctx, recordKey(key)).Result()
	if err != nil {
		s.log.Error("failed to fetch idempotency record", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	if len(result) == 0 {
		return nil, nil
	}

	status, err := strconv.Atoi(result["status"])
	if err != nil {
		s.log.Error("corrupt idempotency record", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("corrupt idempotency record %q: %w", key, err)
	}

	return &Record{
		Status:   status,
		Response: []byte(result["response"]),
	}, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return nil
	}

	args := map[string]interface{}{
		"status":   strconv.Itoa(record.Status),
		"response": string(record.Response),
	}

	if err := s.client.HSet(ctx, recordKey(key), args).Err(); err != nil {
		s.log.Error("failed to store idempotency record", slog.String("key", key), slog.Any("error", err))
		return err
	}

	if err := s.client.Expire(ctx, recordKey(key), ttl).Err(); err != nil {
		s.log.Error("failed to set idempotency ttl", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, key string) error {
	if err := s.client.Delete(ctx, lockKey(key)); err != nil {
		s.log.Error("failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}

func recordKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}

func lockKey(key string) string {
	return fmt.Sprintf("idempotency:%s:lock", key)
}
