package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/commitpool/commitpool/domain"
)

type balanceRepository struct {
	q queryer
}

func (r *balanceRepository) Get(ctx context.Context, address string) (int64, error) {
	var amount int64
	err := r.q.QueryRowContext(ctx, `SELECT amount FROM balances WHERE address = $1`, address).Scan(&amount)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return amount, nil
}

func (r *balanceRepository) Add(ctx context.Context, address string, delta int64) error {
	// The amount >= 0 check constraint rejects any delta that would drive the
	// balance negative, which surfaces as a transaction rollback.
	query := `
        INSERT INTO balances (address, amount)
        VALUES ($1, $2)
        ON CONFLICT (address) DO UPDATE SET amount = balances.amount + EXCLUDED.amount
    `
	if _, err := r.q.ExecContext(ctx, query, address, delta); err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}
	return nil
}

func (r *balanceRepository) Aggregates(ctx context.Context) (domain.Aggregates, error) {
	var agg domain.Aggregates
	err := r.q.QueryRowContext(ctx, `SELECT committer_balance, slashed_balance FROM ledger_aggregates WHERE id = 1`).
		Scan(&agg.CommitterBalance, &agg.SlashedBalance)
	if err != nil {
		return domain.Aggregates{}, fmt.Errorf("failed to read aggregates: %w", err)
	}
	return agg, nil
}

func (r *balanceRepository) AddCommitterBalance(ctx context.Context, delta int64) error {
	query := `UPDATE ledger_aggregates SET committer_balance = committer_balance + $1 WHERE id = 1`
	if _, err := r.q.ExecContext(ctx, query, delta); err != nil {
		return fmt.Errorf("failed to adjust committer balance: %w", err)
	}
	return nil
}

func (r *balanceRepository) AddSlashedBalance(ctx context.Context, delta int64) error {
	query := `UPDATE ledger_aggregates SET slashed_balance = slashed_balance + $1 WHERE id = 1`
	if _, err := r.q.ExecContext(ctx, query, delta); err != nil {
		return fmt.Errorf("failed to adjust slashed balance: %w", err)
	}
	return nil
}
