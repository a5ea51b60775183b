package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/factoria-games/factoria/internal/domain"
)

type postgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgres creates a SQL-backed store.
func NewPostgres(db *sql.DB, log *slog.Logger) Store {
	return &postgresStore{
		db:  db,
		log: log,
	}
}

// Load reads the whole persisted state. The treasury row is created on
// first boot so later updates can be plain UPDATEs.
func (s *postgresStore) Load(ctx context.Context) (*Snapshot, error) {
	snapshot := &Snapshot{}

	const usersQuery = `
		SELECT id, address, balance, total_pay, resources, referrer_id
		FROM users
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, usersQuery)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			user      domain.User
			balance   int64
			totalPay  int64
			resources pq.Int64Array
		)
		if err := rows.Scan(
			&user.ID,
			&user.Address,
			&balance,
			&totalPay,
			&resources,
			&user.Referrer,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}

		user.Balance = uint64(balance)
		user.TotalPay = uint64(totalPay)
		user.Resources = make([]uint64, len(resources))
		for i, units := range resources {
			user.Resources[i] = uint64(units)
		}

		snapshot.Users = append(snapshot.Users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	const factoriesQuery = `
		SELECT id, owner_id, factory_type, level, collected_at
		FROM factories
		ORDER BY id
	`

	factoryRows, err := s.db.QueryContext(ctx, factoriesQuery)
	if err != nil {
		return nil, fmt.Errorf("select factories: %w", err)
	}
	defer factoryRows.Close()

	for factoryRows.Next() {
		var factory domain.Factory
		if err := factoryRows.Scan(
			&factory.ID,
			&factory.OwnerID,
			&factory.Type,
			&factory.Level,
			&factory.CollectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan factory: %w", err)
		}

		snapshot.Factories = append(snapshot.Factories, &factory)
	}
	if err := factoryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate factories: %w", err)
	}

	var treasury int64
	const treasuryQuery = `SELECT treasury FROM ledger_meta WHERE id = 1`
	if err := s.db.QueryRowContext(ctx, treasuryQuery).Scan(&treasury); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("select treasury: %w", err)
		}

		const seed = `INSERT INTO ledger_meta (id, treasury) VALUES (1, 0) ON CONFLICT (id) DO NOTHING`
		if _, err := s.db.ExecContext(ctx, seed); err != nil {
			return nil, fmt.Errorf("seed ledger meta: %w", err)
		}
	}
	snapshot.Treasury = uint64(treasury)

	return snapshot, nil
}

// Apply writes the mutation in one transaction.
func (s *postgresStore) Apply(ctx context.Context, m *Mutation) error {
	if m.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			if s.log != nil {
				s.log.Error("rollback error", "error", rbErr)
			}
		}
	}()

	for _, user := range m.Users {
		if err := upsertUser(ctx, tx, user); err != nil {
			return err
		}
	}

	for _, factory := range m.Factories {
		if err := upsertFactory(ctx, tx, factory); err != nil {
			return err
		}
	}

	if m.Treasury != nil {
		const query = `UPDATE ledger_meta SET treasury = $1 WHERE id = 1`
		if _, err := tx.ExecContext(ctx, query, int64(*m.Treasury)); err != nil {
			return fmt.Errorf("update treasury: %w", err)
		}
	}

	if m.Payout != nil {
		if err := insertPayout(ctx, tx, m.Payout); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply: %w", err)
	}

	return nil
}

func upsertUser(ctx context.Context, tx *sql.Tx, user *domain.User) error {
	const query = `
		INSERT INTO users (id, address, balance, total_pay, resources, referrer_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			total_pay = EXCLUDED.total_pay,
			resources = EXCLUDED.resources
	`

	resources := make(pq.Int64Array, len(user.Resources))
	for i, units := range user.Resources {
		resources[i] = int64(units)
	}

	if _, err := tx.ExecContext(
		ctx,
		query,
		user.ID,
		user.Address,
		int64(user.Balance),
		int64(user.TotalPay),
		resources,
		user.Referrer,
	); err != nil {
		return fmt.Errorf("upsert user %d: %w", user.ID, err)
	}

	return nil
}

func upsertFactory(ctx context.Context, tx *sql.Tx, factory *domain.Factory) error {
	const query = `
		INSERT INTO factories (id, owner_id, factory_type, level, collected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			level = EXCLUDED.level,
			collected_at = EXCLUDED.collected_at
	`

	if _, err := tx.ExecContext(
		ctx,
		query,
		factory.ID,
		factory.OwnerID,
		factory.Type,
		factory.Level,
		factory.CollectedAt,
	); err != nil {
		return fmt.Errorf("upsert factory %d: %w", factory.ID, err)
	}

	return nil
}

func insertPayout(ctx context.Context, tx *sql.Tx, payout *domain.Payout) error {
	const query = `
		INSERT INTO payouts (reference, user_id, address, resource_type, units, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := tx.ExecContext(
		ctx,
		query,
		payout.Reference,
		payout.UserID,
		payout.Address,
		payout.ResourceType,
		int64(payout.Units),
		int64(payout.Amount),
		payout.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert payout %s: %w", payout.Reference, err)
	}

	return nil
}
