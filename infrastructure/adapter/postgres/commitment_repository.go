package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/commitpool/commitpool/domain"
)

type commitmentRepository struct {
	q queryer
}

func (r *commitmentRepository) Get(ctx context.Context, committer string) (*domain.Commitment, error) {
	query := `
        SELECT committer, activity_key, measure_index, goal_value, stake, start_time, end_time, met, user_id, created_at
        FROM commitments
        WHERE committer = $1
    `
	var c domain.Commitment
	err := r.q.QueryRowContext(ctx, query, committer).Scan(
		&c.Committer,
		&c.ActivityKey,
		&c.MeasureIndex,
		&c.GoalValue,
		&c.Stake,
		&c.StartTime,
		&c.EndTime,
		&c.Met,
		&c.UserID,
		&c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read commitment: %w", err)
	}
	return &c, nil
}

func (r *commitmentRepository) Create(ctx context.Context, c *domain.Commitment) error {
	query := `
        INSERT INTO commitments (committer, activity_key, measure_index, goal_value, stake, start_time, end_time, met, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := r.q.ExecContext(ctx, query,
		c.Committer,
		c.ActivityKey,
		c.MeasureIndex,
		c.GoalValue,
		c.Stake,
		c.StartTime,
		c.EndTime,
		c.Met,
		c.UserID,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create commitment: %w", err)
	}
	return nil
}

func (r *commitmentRepository) Delete(ctx context.Context, committer string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM commitments WHERE committer = $1`, committer)
	if err != nil {
		return fmt.Errorf("failed to delete commitment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete commitment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no commitment slot for %s", committer)
	}
	return nil
}
