package domain

import (
	"time"
)

// Commitment is the single active stake a committer holds against a declared
// goal. The stake is a logical lock inside the committer's deposited balance;
// no funds move until the commitment is processed.
type Commitment struct {
	Committer    string    `json:"committer"`
	ActivityKey  string    `json:"activity_key"`
	MeasureIndex int       `json:"measure_index"`
	GoalValue    int64     `json:"goal_value"`
	Stake        int64     `json:"stake"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Met          bool      `json:"met"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCommitment creates an active commitment starting at start and running
// for the given duration.
func NewCommitment(committer, activityKey string, measureIndex int, goal, stake int64, start time.Time, duration time.Duration, userID string) *Commitment {
	return &Commitment{
		Committer:    committer,
		ActivityKey:  activityKey,
		MeasureIndex: measureIndex,
		GoalValue:    goal,
		Stake:        stake,
		StartTime:    start,
		EndTime:      start.Add(duration),
		Met:          false,
		UserID:       userID,
		CreatedAt:    time.Now().UTC(),
	}
}

// Ended reports whether the commitment window has closed at the given time.
// Processing before this point is rejected.
func (c *Commitment) Ended(now time.Time) bool {
	return !now.Before(c.EndTime)
}
