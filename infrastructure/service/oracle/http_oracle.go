// Package oracle implements the measurement oracle collaborator. The engine
// only consumes a met / not-met / unknown verdict; how the oracle measures is
// its own business.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

// HTTPOracle asks an external oracle service for goal verdicts. Any failure
// yields Unknown, which the engine settles as not met.
type HTTPOracle struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPOracle(baseURL string, timeout time.Duration, log logger.Logger) *HTTPOracle {
	return &HTTPOracle{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

type goalCheckRequest struct {
	Committer   string    `json:"committer"`
	UserID      string    `json:"user_id"`
	ActivityKey string    `json:"activity_key"`
	Measure     string    `json:"measure,omitempty"`
	GoalValue   int64     `json:"goal_value"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

type goalCheckResponse struct {
	Result string `json:"result"`
}

func (o *HTTPOracle) GoalMet(ctx context.Context, check outbound.GoalCheck) outbound.OracleResult {
	raw, err := json.Marshal(goalCheckRequest{
		Committer:   check.Committer,
		UserID:      check.UserID,
		ActivityKey: check.ActivityKey,
		Measure:     check.Measure,
		GoalValue:   check.GoalValue,
		Start:       check.Start,
		End:         check.End,
	})
	if err != nil {
		return outbound.OracleUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/v1/goal-checks", bytes.NewReader(raw))
	if err != nil {
		return outbound.OracleUnknown
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		o.logger.Warn(ctx, "oracle request failed", map[string]interface{}{
			"activity_key": check.ActivityKey,
			"error":        err.Error(),
		})
		return outbound.OracleUnknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return outbound.OracleUnknown
	}

	var body goalCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return outbound.OracleUnknown
	}

	switch body.Result {
	case "met":
		return outbound.OracleMet
	case "not_met":
		return outbound.OracleNotMet
	default:
		return outbound.OracleUnknown
	}
}
