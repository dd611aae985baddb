package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

func oracleServer(t *testing.T, result string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/goal-checks", r.URL.Path)
		var req goalCheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(goalCheckResponse{Result: result})
	}))
}

func sampleCheck() outbound.GoalCheck {
	return outbound.GoalCheck{
		Committer:   "alice",
		ActivityKey: "key",
		Measure:     "km",
		GoalValue:   50,
		Start:       time.Now().Add(-7 * 24 * time.Hour),
		End:         time.Now(),
	}
}

func TestHTTPOracleVerdicts(t *testing.T) {
	cases := []struct {
		response string
		want     outbound.OracleResult
	}{
		{"met", outbound.OracleMet},
		{"not_met", outbound.OracleNotMet},
		{"pending", outbound.OracleUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.response, func(t *testing.T) {
			server := oracleServer(t, tc.response)
			defer server.Close()

			o := NewHTTPOracle(server.URL, time.Second, logger.Noop())
			assert.Equal(t, tc.want, o.GoalMet(context.Background(), sampleCheck()))
		})
	}
}

func TestHTTPOracleUnknownOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	o := NewHTTPOracle(server.URL, time.Second, logger.Noop())
	assert.Equal(t, outbound.OracleUnknown, o.GoalMet(context.Background(), sampleCheck()))
}

func TestHTTPOracleUnknownWhenDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	o := NewHTTPOracle(server.URL, time.Second, logger.Noop())
	assert.Equal(t, outbound.OracleUnknown, o.GoalMet(context.Background(), sampleCheck()))
}

func TestStaticOracle(t *testing.T) {
	assert.Equal(t, outbound.OracleMet, NewStaticOracle(outbound.OracleMet).GoalMet(context.Background(), sampleCheck()))
	assert.Equal(t, outbound.OracleNotMet, NewStaticOracle(outbound.OracleNotMet).GoalMet(context.Background(), sampleCheck()))
}
