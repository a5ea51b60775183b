// Package service hosts the resident ledger: it serializes calls,
// samples the clock once per operation, persists exactly the touched
// records and hands settled payouts to custody.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/factoria-games/factoria/internal/custody"
	"github.com/factoria-games/factoria/internal/domain"
	"github.com/factoria-games/factoria/internal/ledger"
	"github.com/factoria-games/factoria/internal/store"
	"github.com/factoria-games/factoria/pkg/metrics"
)

// ErrManualClockDisabled is returned by AdvanceClock when the service
// follows the wall clock.
var ErrManualClockDisabled = errors.New("manual clock is not enabled")

// Service owns the ledger instance. All mutating calls run under one
// lock: the execution model is single-call-atomic and the ledger itself
// is not safe for concurrent use.
type Service struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	store  store.Store
	vault  custody.Vault
	clk    clock.Clock
	mock   *clock.Mock
	log    *slog.Logger

	// lastNow keeps observed time monotonic even if the wall clock
	// steps backwards between calls.
	lastNow int64
}

// New builds a service around a ledger. Pass a *clock.Mock to run with
// the manually advanced clock.
func New(l *ledger.Ledger, st store.Store, vault custody.Vault, clk clock.Clock, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	mock, _ := clk.(*clock.Mock)

	return &Service{
		ledger: l,
		store:  st,
		vault:  vault,
		clk:    clk,
		mock:   mock,
		log:    log,
	}
}

// Restore loads the persisted state into the ledger. Called at boot,
// and again whenever a durable write fails and the stored state becomes
// the authoritative one.
func (s *Service) Restore(ctx context.Context) error {
	snapshot, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	if err := s.ledger.Restore(snapshot.Users, snapshot.Factories, snapshot.Treasury); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}

	s.log.Info("ledger restored",
		slog.Int("users", s.ledger.UsersCount()),
		slog.Int("factories", s.ledger.FactoriesCount()),
		slog.Uint64("treasury", s.ledger.Treasury()),
	)
	s.publishSize()

	return nil
}

// Register creates a user, optionally linked under a referrer. A zero
// refID means no referrer.
func (s *Service) Register(ctx context.Context, address string, refID int64, attached uint64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		user *domain.User
		err  error
	)

	finish := s.observe("register")
	defer func() { finish(err) }()

	if refID == 0 {
		user, err = s.ledger.Register(address, attached)
	} else {
		user, err = s.ledger.RegisterWithRef(refID, address, attached)
	}
	if err != nil {
		return nil, err
	}

	if err = s.persist(ctx, &store.Mutation{Users: []*domain.User{user}}); err != nil {
		return nil, err
	}

	return user, nil
}

// Deposit credits funds to the caller's balance.
func (s *Service) Deposit(ctx context.Context, address string, amount uint64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	finish := s.observe("deposit")
	defer func() { finish(err) }()

	user, err := s.ledger.Deposit(address, amount)
	if err != nil {
		return nil, err
	}

	if err = s.persist(ctx, &store.Mutation{Users: []*domain.User{user}}); err != nil {
		return nil, err
	}

	return user, nil
}

// BuyFactory purchases a level-0 factory for the caller.
func (s *Service) BuyFactory(ctx context.Context, address string, ftype int, attached uint64) (*domain.Factory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	finish := s.observe("buy_factory")
	defer func() { finish(err) }()

	factory, receipt, err := s.ledger.BuyFactory(address, ftype, attached, s.now())
	if err != nil {
		return nil, err
	}

	if err = s.persistReceipt(ctx, receipt); err != nil {
		return nil, err
	}

	s.recordReceipt(receipt)
	return factory, nil
}

// LevelUp advances a factory one level.
func (s *Service) LevelUp(ctx context.Context, address string, factoryID int64, attached uint64) (*domain.Factory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	finish := s.observe("level_up")
	defer func() { finish(err) }()

	factory, receipt, err := s.ledger.LevelUp(address, factoryID, attached, s.now())
	if err != nil {
		return nil, err
	}

	if err = s.persistReceipt(ctx, receipt); err != nil {
		return nil, err
	}

	s.recordReceipt(receipt)
	return factory, nil
}

// Collect realizes pending production of every factory the caller owns.
// It returns the updated user and the total units credited.
func (s *Service) Collect(ctx context.Context, address string) (*domain.User, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	finish := s.observe("collect")
	defer func() { finish(err) }()

	user, receipt, err := s.ledger.CollectResources(address, s.now())
	if err != nil {
		return nil, 0, err
	}

	if err = s.persistReceipt(ctx, receipt); err != nil {
		return nil, 0, err
	}

	s.recordReceipt(receipt)
	return user, receipt.Collected, nil
}

// Sell converts the caller's whole holding of one resource type into a
// custody payout. The payout is journaled in the same transaction as
// the state change; custody settlement runs strictly after durability.
func (s *Service) Sell(ctx context.Context, address string, resourceType int) (*domain.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	finish := s.observe("sell")
	defer func() { finish(err) }()

	payout, receipt, err := s.ledger.SellResources(address, resourceType)
	if err != nil {
		return nil, err
	}

	payout.Reference = uuid.NewString()
	payout.CreatedAt = s.clk.Now().UTC()
	receipt.Payout = payout

	if err = s.persistReceipt(ctx, receipt); err != nil {
		return nil, err
	}

	s.recordReceipt(receipt)

	if transferErr := s.vault.Transfer(ctx, payout); transferErr != nil {
		// The sale is committed and journaled; settlement is retried
		// from the journal, not by rolling the ledger back.
		s.log.Error("custody transfer failed",
			slog.String("reference", payout.Reference),
			slog.Any("error", transferErr),
		)
		metrics.RecordPayout("transfer_failed")
	} else {
		metrics.RecordPayout("settled")
	}

	return payout, nil
}

// FundTreasury seeds the payout reserve. Owner only.
func (s *Service) FundTreasury(ctx context.Context, address string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	finish := s.observe("fund_treasury")
	defer func() { finish(err) }()

	if err = s.ledger.FundTreasury(address, amount); err != nil {
		return err
	}

	treasury := s.ledger.Treasury()
	if err = s.persist(ctx, &store.Mutation{Treasury: &treasury}); err != nil {
		return err
	}

	return nil
}

// AdvanceClock moves the manual clock forward and returns the new time.
// Owner only: advancing time matures production on every factory.
func (s *Service) AdvanceClock(address string, d time.Duration) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if address != s.ledger.Owner() {
		return time.Time{}, fmt.Errorf("%w: clock advances are owner-only", ledger.ErrUnauthorized)
	}
	if s.mock == nil {
		return time.Time{}, ErrManualClockDisabled
	}
	if d < 0 {
		return time.Time{}, fmt.Errorf("%w: negative advance", ledger.ErrInvalidArgument)
	}

	s.mock.Add(d)
	return s.mock.Now(), nil
}

// Now returns the service's current view of time.
func (s *Service) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clk.Now()
}

// now samples the clock once for the current call and clamps it to be
// monotonic across calls.
func (s *Service) now() int64 {
	now := s.clk.Now().Unix()
	if now < s.lastNow {
		now = s.lastNow
	}
	s.lastNow = now
	return now
}

// persistReceipt materializes the touched records into a mutation and
// writes it.
func (s *Service) persistReceipt(ctx context.Context, receipt *ledger.Receipt) error {
	mutation := &store.Mutation{Payout: receipt.Payout}

	for _, id := range receipt.UserIDs {
		user, err := s.ledger.UserInfo(id)
		if err != nil {
			return fmt.Errorf("snapshot user %d: %w", id, err)
		}
		mutation.Users = append(mutation.Users, user)
	}

	for _, id := range receipt.FactoryIDs {
		factory, err := s.ledger.Factory(id)
		if err != nil {
			return fmt.Errorf("snapshot factory %d: %w", id, err)
		}
		mutation.Factories = append(mutation.Factories, factory)
	}

	if receipt.TreasuryChanged {
		treasury := s.ledger.Treasury()
		mutation.Treasury = &treasury
	}

	return s.persist(ctx, mutation)
}

// persist writes the mutation. If the durable write fails the resident
// state is reloaded from the store, which reverts the in-memory commit.
func (s *Service) persist(ctx context.Context, mutation *store.Mutation) error {
	if mutation.Empty() {
		return nil
	}

	if err := s.store.Apply(ctx, mutation); err != nil {
		s.log.Error("durable write failed, reloading state", slog.Any("error", err))

		if restoreErr := s.Restore(ctx); restoreErr != nil {
			s.log.Error("state reload failed", slog.Any("error", restoreErr))
			return errors.Join(err, restoreErr)
		}

		return fmt.Errorf("persist operation: %w", err)
	}

	s.publishSize()
	return nil
}

func (s *Service) recordReceipt(receipt *ledger.Receipt) {
	for _, commission := range receipt.Commissions {
		metrics.RecordCommission(commission.Depth, commission.Amount)
	}
	if receipt.Collected > 0 {
		metrics.RecordCollected(receipt.Collected)
	}
}

func (s *Service) publishSize() {
	metrics.SetLedgerSize(s.ledger.UsersCount(), s.ledger.FactoriesCount(), s.ledger.Treasury())
}

func (s *Service) observe(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordOperation(operation, status, time.Since(start))
	}
}
