package outbound

import (
	"context"
	"time"
)

// OracleResult is the oracle's verdict on a goal. Unknown covers every
// failure mode and is settled as not met, in the protocol's favor.
type OracleResult int

const (
	OracleUnknown OracleResult = iota
	OracleMet
	OracleNotMet
)

// GoalCheck identifies the question put to the oracle: did this user achieve
// the declared goal for the activity inside the commitment window.
type GoalCheck struct {
	Committer   string
	UserID      string
	ActivityKey string
	Measure     string
	GoalValue   int64
	Start       time.Time
	End         time.Time
}

// Oracle answers goal checks. The measurement protocol behind it is opaque
// to the engine.
type Oracle interface {
	GoalMet(ctx context.Context, check GoalCheck) OracleResult
}
