package domain

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/commitpool/commitpool/domain/apperr"
)

// Measure is a unit an activity goal is expressed in, e.g. "km".
type Measure struct {
	Name    string `json:"name"`
	Allowed bool   `json:"allowed"`
}

// Activity is a stakeable activity in the registry. Exists is set once at
// registration and cleared only by deletion; Allowed toggles availability
// without losing the entry.
type Activity struct {
	Key            string    `json:"key"`
	Name           string    `json:"name"`
	Measures       []Measure `json:"measures"`
	GoalLowerBound int64     `json:"goal_lower_bound"`
	GoalUpperBound int64     `json:"goal_upper_bound"`
	OracleRef      string    `json:"oracle_ref"`
	Allowed        bool      `json:"allowed"`
	Exists         bool      `json:"exists"`
}

// ActivityKey derives the opaque registry key from an activity name.
func ActivityKey(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}

// NewActivity builds a registry entry with allowed=true and exists=true.
func NewActivity(name string, measures []string, lower, upper int64, oracleRef string) (*Activity, error) {
	if name == "" {
		return nil, apperr.ErrInvalidActivity("name is required")
	}
	if len(measures) == 0 {
		return nil, apperr.ErrInvalidActivity("at least one measure is required")
	}
	if lower > upper {
		return nil, apperr.ErrInvalidActivity("goal lower bound exceeds upper bound")
	}
	ms := make([]Measure, 0, len(measures))
	for _, m := range measures {
		if m == "" {
			return nil, apperr.ErrInvalidActivity("measure name is required")
		}
		ms = append(ms, Measure{Name: m, Allowed: true})
	}
	return &Activity{
		Key:            ActivityKey(name),
		Name:           name,
		Measures:       ms,
		GoalLowerBound: lower,
		GoalUpperBound: upper,
		OracleRef:      oracleRef,
		Allowed:        true,
		Exists:         true,
	}, nil
}

// Measure returns the measure at index, bounds-checked.
func (a *Activity) Measure(index int) (Measure, error) {
	if index < 0 || index >= len(a.Measures) {
		return Measure{}, apperr.ErrBadMeasureIndex(index, len(a.Measures))
	}
	m := a.Measures[index]
	if !m.Allowed {
		return Measure{}, apperr.ErrMeasureNotAllowed(m.Name)
	}
	return m, nil
}

// ValidateGoal checks a goal value against the inclusive activity bounds.
func (a *Activity) ValidateGoal(goal int64) error {
	if goal < a.GoalLowerBound {
		return apperr.ErrGoalTooLow(goal, a.GoalLowerBound)
	}
	if goal > a.GoalUpperBound {
		return apperr.ErrGoalTooHigh(goal, a.GoalUpperBound)
	}
	return nil
}
