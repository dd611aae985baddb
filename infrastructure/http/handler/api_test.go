package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/application/usecase"
	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/infrastructure/adapter/memory"
	"github.com/commitpool/commitpool/infrastructure/http/middleware"
	"github.com/commitpool/commitpool/infrastructure/http/response"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
	"github.com/commitpool/commitpool/infrastructure/service/oracle"
	"github.com/commitpool/commitpool/infrastructure/service/token"
)

const (
	apiSecret  = "api-test-secret"
	apiAccount = "pool-account"
	apiAdmin   = "admin-address"
)

type apiFixture struct {
	router *mux.Router
	store  *memory.Store
	token  *token.MockClient
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	bridge := token.NewMockClient()
	log := logger.Noop()

	_, err := usecase.SeedActivities(context.Background(), store, []usecase.ActivitySeed{
		{Name: "biking", Measures: []string{"km"}, GoalLowerBound: 2, GoalUpperBound: 1024},
	})
	require.NoError(t, err)

	ledgerUC := usecase.NewLedgerUseCase(store, bridge, nil, apiAccount)
	commitUC := usecase.NewCommitmentUseCase(store, bridge, oracle.NewStaticOracle(outbound.OracleNotMet), nil, apiAccount, 0)
	adminUC := usecase.NewAdminUseCase(store, bridge, nil, apiAdmin, apiAccount)
	registryUC := usecase.NewRegistryUseCase(store)

	auth := middleware.NewAuthMiddleware(apiSecret)
	router := mux.NewRouter()

	NewLedgerHandler(ledgerUC, log).RegisterRoutes(router, auth)
	commitments := NewCommitmentHandler(commitUC, log)
	commitments.RegisterRoutes(router, auth)
	NewActivityHandler(registryUC).RegisterRoutes(router)
	NewAdminHandler(adminUC, ledgerUC, commitments, log).RegisterRoutes(router, auth)

	return &apiFixture{router: router, store: store, token: bridge}
}

func (f *apiFixture) bearer(t *testing.T, subject, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(apiSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *apiFixture) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func TestDepositAndBalanceOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.token.SetBalance("alice", 500)
	alice := f.bearer(t, "alice", "")

	rec := f.do(t, http.MethodPost, "/v1/ledger/deposit", alice, map[string]int64{"amount": 200})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Status)

	rec = f.do(t, http.MethodGet, "/v1/ledger/balance", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	view := env.Data.(map[string]interface{})
	assert.Equal(t, float64(200), view["balance"])
	assert.Equal(t, float64(200), view["withdrawable"])

	// The bridge moved the tokens into the pool account.
	held, err := f.token.BalanceOf(context.Background(), apiAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(200), held)
}

func TestDepositRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/ledger/deposit", "", map[string]int64{"amount": 100})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDepositRejectedByBridge(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.bearer(t, "alice", "")

	// No token balance seeded, so the pull is rejected.
	rec := f.do(t, http.MethodPost, "/v1/ledger/deposit", alice, map[string]int64{"amount": 100})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Status)
	assert.Equal(t, "EXT_4001", env.Data.(map[string]interface{})["code"])
}

func TestCommitmentLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.token.SetBalance("alice", 500)
	alice := f.bearer(t, "alice", "")

	rec := f.do(t, http.MethodPost, "/v1/ledger/deposit", alice, map[string]int64{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/commitments", alice, usecase.MakeCommitmentRequest{
		ActivityKey: domain.ActivityKey("biking"),
		GoalValue:   50,
		Stake:       50,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/v1/commitments", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	commitment := env.Data.(map[string]interface{})
	assert.Equal(t, "alice", commitment["committer"])
	assert.Equal(t, float64(50), commitment["stake"])

	// Processing before the window closes is rejected.
	rec = f.do(t, http.MethodPost, "/v1/commitments/process", alice, nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// A withdrawal eating into the locked stake is rejected.
	rec = f.do(t, http.MethodPost, "/v1/ledger/withdraw", alice, map[string]int64{"amount": 80})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCommitmentValidationOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.token.SetBalance("alice", 500)
	alice := f.bearer(t, "alice", "")

	rec := f.do(t, http.MethodPost, "/v1/ledger/deposit", alice, map[string]int64{"amount": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/v1/commitments", alice, usecase.MakeCommitmentRequest{
		ActivityKey: domain.ActivityKey("biking"),
		GoalValue:   1,
		Stake:       50,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VALID_1004", env.Data.(map[string]interface{})["code"])
}

func TestActivityDiscoveryOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/activities", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	activities := env.Data.([]interface{})
	require.Len(t, activities, 1)
	assert.Equal(t, "biking", activities[0].(map[string]interface{})["name"])

	rec = f.do(t, http.MethodGet, "/v1/activities?index=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.Equal(t, domain.ActivityKey("biking"), env.Data.(map[string]interface{})["key"])

	rec = f.do(t, http.MethodGet, "/v1/activities?index=5", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/activities/"+domain.ActivityKey("biking"), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/v1/activities/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.bearer(t, "alice", "")

	rec := f.do(t, http.MethodPost, "/v1/admin/withdraw", alice, map[string]int64{"amount": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The admin role alone is not enough; the configured admin address is
	// checked by the use case as well.
	impostor := f.bearer(t, "mallory", middleware.RoleAdmin)
	rec = f.do(t, http.MethodPost, "/v1/admin/withdraw", impostor, map[string]int64{"amount": 10})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRegisterActivityOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.bearer(t, apiAdmin, middleware.RoleAdmin)

	rec := f.do(t, http.MethodPost, "/v1/admin/activities", admin, map[string]interface{}{
		"name":             "running",
		"measures":         []string{"km"},
		"goal_lower_bound": 1,
		"goal_upper_bound": 500,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/v1/activities", "", nil)
	env := decodeEnvelope(t, rec)
	assert.Len(t, env.Data.([]interface{}), 2)
}

func TestAdminSlashedWithdrawOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.bearer(t, apiAdmin, middleware.RoleAdmin)

	rec := f.do(t, http.MethodPost, "/v1/admin/slashed/withdraw", admin, map[string]int64{"amount": 10})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "FUNDS_3004", env.Data.(map[string]interface{})["code"])
}
