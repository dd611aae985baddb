// Package postgres implements the ledger store on PostgreSQL. Atomic wraps
// fn in a serializable transaction so top-level operations never interleave
// and commit all-or-nothing, including rollbacks triggered by token-bridge
// failures raised inside fn.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/commitpool/commitpool/application/port/outbound"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store is the PostgreSQL-backed ledger store.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside one serializable transaction.
func (s *Store) Atomic(ctx context.Context, fn func(r outbound.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(repositories{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) Balances() outbound.BalanceRepository {
	return &balanceRepository{q: s.db}
}

func (s *Store) Commitments() outbound.CommitmentRepository {
	return &commitmentRepository{q: s.db}
}

func (s *Store) Activities() outbound.ActivityRepository {
	return &activityRepository{q: s.db}
}

type repositories struct {
	q queryer
}

func (r repositories) Balances() outbound.BalanceRepository {
	return &balanceRepository{q: r.q}
}

func (r repositories) Commitments() outbound.CommitmentRepository {
	return &commitmentRepository{q: r.q}
}

func (r repositories) Activities() outbound.ActivityRepository {
	return &activityRepository{q: r.q}
}
