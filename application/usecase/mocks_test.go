package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/infrastructure/adapter/memory"
)

const (
	testAccount = "pool-account"
	testAdmin   = "admin-address"
)

var transferOK = outbound.TransferResult{Status: outbound.TransferOK}

type MockTokenClient struct {
	mock.Mock
}

func (m *MockTokenClient) TransferFrom(ctx context.Context, from, to string, amount int64) outbound.TransferResult {
	args := m.Called(ctx, from, to, amount)
	return args.Get(0).(outbound.TransferResult)
}

func (m *MockTokenClient) Transfer(ctx context.Context, to string, amount int64) outbound.TransferResult {
	args := m.Called(ctx, to, amount)
	return args.Get(0).(outbound.TransferResult)
}

func (m *MockTokenClient) BalanceOf(ctx context.Context, address string) (int64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(int64), args.Error(1)
}

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) GoalMet(ctx context.Context, check outbound.GoalCheck) outbound.OracleResult {
	args := m.Called(ctx, check)
	return args.Get(0).(outbound.OracleResult)
}

// seedActivity registers a biking/km activity with bounds [2, 1024] and
// returns its key.
func seedActivity(t *testing.T, store *memory.Store) string {
	t.Helper()
	activity, err := domain.NewActivity("biking", []string{"km"}, 2, 1024, "oracle-ref")
	require.NoError(t, err)
	require.NoError(t, store.Atomic(context.Background(), func(r outbound.Repositories) error {
		return r.Activities().Create(context.Background(), activity)
	}))
	return activity.Key
}

// credit puts already-deposited funds into the ledger without going through
// the token bridge.
func credit(t *testing.T, store *memory.Store, address string, amount int64) {
	t.Helper()
	require.NoError(t, store.Atomic(context.Background(), func(r outbound.Repositories) error {
		if err := r.Balances().Add(context.Background(), address, amount); err != nil {
			return err
		}
		return r.Balances().AddCommitterBalance(context.Background(), amount)
	}))
}

// addSlashed seeds the slashed pool directly.
func addSlashed(t *testing.T, store *memory.Store, amount int64) {
	t.Helper()
	require.NoError(t, store.Atomic(context.Background(), func(r outbound.Repositories) error {
		return r.Balances().AddSlashedBalance(context.Background(), amount)
	}))
}
