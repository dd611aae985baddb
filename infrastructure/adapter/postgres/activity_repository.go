package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/commitpool/commitpool/domain"
)

type activityRepository struct {
	q queryer
}

const activityColumns = `key, name, measures, goal_lower_bound, goal_upper_bound, oracle_ref, allowed`

func (r *activityRepository) Get(ctx context.Context, key string) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE key = $1`
	activity, err := scanActivity(r.q.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}
	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, a *domain.Activity) error {
	measures, err := json.Marshal(a.Measures)
	if err != nil {
		return fmt.Errorf("failed to marshal measures: %w", err)
	}
	query := `
        INSERT INTO activities (key, name, measures, goal_lower_bound, goal_upper_bound, oracle_ref, allowed)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	if _, err := r.q.ExecContext(ctx, query, a.Key, a.Name, measures, a.GoalLowerBound, a.GoalUpperBound, a.OracleRef, a.Allowed); err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *activityRepository) Update(ctx context.Context, a *domain.Activity) error {
	measures, err := json.Marshal(a.Measures)
	if err != nil {
		return fmt.Errorf("failed to marshal measures: %w", err)
	}
	query := `
        UPDATE activities
        SET name = $2, measures = $3, goal_lower_bound = $4, goal_upper_bound = $5, oracle_ref = $6, allowed = $7
        WHERE key = $1
    `
	res, err := r.q.ExecContext(ctx, query, a.Key, a.Name, measures, a.GoalLowerBound, a.GoalUpperBound, a.OracleRef, a.Allowed)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("activity %s not registered", a.Key)
	}
	return nil
}

func (r *activityRepository) Delete(ctx context.Context, key string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM activities WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("activity %s not registered", key)
	}
	return nil
}

func (r *activityRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT key FROM activities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan activity key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list activity keys: %w", err)
	}
	return keys, nil
}

func (r *activityRepository) List(ctx context.Context) ([]*domain.Activity, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+activityColumns+` FROM activities ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivity(row rowScanner) (*domain.Activity, error) {
	var a domain.Activity
	var measures []byte
	if err := row.Scan(&a.Key, &a.Name, &measures, &a.GoalLowerBound, &a.GoalUpperBound, &a.OracleRef, &a.Allowed); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(measures, &a.Measures); err != nil {
		return nil, fmt.Errorf("failed to unmarshal measures: %w", err)
	}
	a.Exists = true
	return &a, nil
}
