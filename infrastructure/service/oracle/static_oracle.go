package oracle

import (
	"context"

	"github.com/commitpool/commitpool/application/port/outbound"
)

// StaticOracle answers every check with a fixed verdict. The not-met variant
// is the default for environments without a real measurement source.
type StaticOracle struct {
	result outbound.OracleResult
}

func NewStaticOracle(result outbound.OracleResult) *StaticOracle {
	return &StaticOracle{result: result}
}

func (o *StaticOracle) GoalMet(ctx context.Context, check outbound.GoalCheck) outbound.OracleResult {
	return o.result
}
