package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain/apperr"
	"github.com/commitpool/commitpool/infrastructure/adapter/memory"
)

func newAdminFixture() (*memory.Store, *MockTokenClient, *AdminUseCase) {
	store := memory.NewStore()
	token := new(MockTokenClient)
	uc := NewAdminUseCase(store, token, nil, testAdmin, testAccount)
	return store, token, uc
}

func TestOwnerWithdrawSolvencyGuard(t *testing.T) {
	store, token, uc := newAdminFixture()
	credit(t, store, "alice", 100)
	addSlashed(t, store, 20)
	token.On("BalanceOf", mock.Anything, testAccount).Return(int64(150), nil)

	// 150 held, 100 owed to committers, 20 in the slashed pool: 30 available.
	err := uc.OwnerWithdraw(context.Background(), testAdmin, 50)
	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeInsufficientAvailableBalance, apperr.CodeOf(err))
	token.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything)

	token.On("Transfer", mock.Anything, testAdmin, int64(30)).Return(transferOK)
	require.NoError(t, uc.OwnerWithdraw(context.Background(), testAdmin, 30))

	// Committer and slashed funds never moved.
	agg, err := store.Balances().Aggregates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), agg.CommitterBalance)
	assert.Equal(t, int64(20), agg.SlashedBalance)
	token.AssertExpectations(t)
}

func TestOwnerWithdrawRequiresAdminCapability(t *testing.T) {
	_, token, uc := newAdminFixture()

	err := uc.OwnerWithdraw(context.Background(), "mallory", 10)

	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeAdminOnly, apperr.CodeOf(err))
	token.AssertNotCalled(t, "BalanceOf", mock.Anything, mock.Anything)
}

func TestWithdrawSlashedBoundedByPool(t *testing.T) {
	store, token, uc := newAdminFixture()
	addSlashed(t, store, 20)

	err := uc.WithdrawSlashed(context.Background(), testAdmin, 30)
	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeInsufficientSlashedBalance, apperr.CodeOf(err))

	token.On("Transfer", mock.Anything, testAdmin, int64(20)).Return(transferOK)
	require.NoError(t, uc.WithdrawSlashed(context.Background(), testAdmin, 20))

	agg, err := store.Balances().Aggregates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.SlashedBalance)
}

func TestWithdrawSlashedRollsBackWhenTransferFails(t *testing.T) {
	store, token, uc := newAdminFixture()
	addSlashed(t, store, 20)
	token.On("Transfer", mock.Anything, testAdmin, int64(20)).
		Return(outbound.TransferResult{Status: outbound.TransferRejected, Reason: "policy"})

	err := uc.WithdrawSlashed(context.Background(), testAdmin, 20)

	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeTransferFailed, apperr.CodeOf(err))

	agg, err := store.Balances().Aggregates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(20), agg.SlashedBalance)
}

func TestRegisterActivity(t *testing.T) {
	store, _, uc := newAdminFixture()

	activity, err := uc.RegisterActivity(context.Background(), testAdmin, "running", []string{"km", "min"}, 1, 500, "oracle-2")
	require.NoError(t, err)
	assert.True(t, activity.Allowed)
	assert.Len(t, activity.Measures, 2)

	_, err = uc.RegisterActivity(context.Background(), testAdmin, "running", []string{"km"}, 1, 500, "oracle-2")
	require.Error(t, err)
	assert.Equal(t, apperr.ErrCodeActivityExists, apperr.CodeOf(err))

	stored, err := store.Activities().Get(context.Background(), activity.Key)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "running", stored.Name)
}

func TestUpdateActivityAllowedToggles(t *testing.T) {
	store, _, uc := newAdminFixture()
	registry := NewRegistryUseCase(store)

	activity, err := uc.RegisterActivity(context.Background(), testAdmin, "biking", []string{"km"}, 2, 1024, "oracle-1")
	require.NoError(t, err)

	require.NoError(t, uc.UpdateActivityAllowed(context.Background(), testAdmin, activity.Key, false))
	_, err = registry.Lookup(context.Background(), activity.Key)
	assert.Equal(t, apperr.ErrCodeActivityNotAllowed, apperr.CodeOf(err))

	require.NoError(t, uc.UpdateActivityAllowed(context.Background(), testAdmin, activity.Key, true))
	_, err = registry.Lookup(context.Background(), activity.Key)
	require.NoError(t, err)
}

func TestUpdateActivityOracle(t *testing.T) {
	store, _, uc := newAdminFixture()

	activity, err := uc.RegisterActivity(context.Background(), testAdmin, "biking", []string{"km"}, 2, 1024, "oracle-1")
	require.NoError(t, err)

	require.NoError(t, uc.UpdateActivityOracle(context.Background(), testAdmin, activity.Key, "oracle-9"))

	stored, err := store.Activities().Get(context.Background(), activity.Key)
	require.NoError(t, err)
	assert.Equal(t, "oracle-9", stored.OracleRef)

	err = uc.UpdateActivityOracle(context.Background(), testAdmin, "missing", "oracle-9")
	assert.Equal(t, apperr.ErrCodeActivityNotFound, apperr.CodeOf(err))
}

func TestDeleteActivity(t *testing.T) {
	store, _, uc := newAdminFixture()
	registry := NewRegistryUseCase(store)

	activity, err := uc.RegisterActivity(context.Background(), testAdmin, "biking", []string{"km"}, 2, 1024, "oracle-1")
	require.NoError(t, err)

	require.NoError(t, uc.DeleteActivity(context.Background(), testAdmin, activity.Key))

	_, err = registry.Lookup(context.Background(), activity.Key)
	assert.Equal(t, apperr.ErrCodeActivityNotFound, apperr.CodeOf(err))

	err = uc.DeleteActivity(context.Background(), testAdmin, activity.Key)
	assert.Equal(t, apperr.ErrCodeActivityNotFound, apperr.CodeOf(err))
}

func TestRegistryOperationsRejectNonAdmin(t *testing.T) {
	_, _, uc := newAdminFixture()

	_, err := uc.RegisterActivity(context.Background(), "mallory", "biking", []string{"km"}, 2, 1024, "")
	assert.Equal(t, apperr.ErrCodeAdminOnly, apperr.CodeOf(err))

	err = uc.UpdateActivityAllowed(context.Background(), "", "key", false)
	assert.Equal(t, apperr.ErrCodeAdminOnly, apperr.CodeOf(err))

	err = uc.DeleteActivity(context.Background(), "mallory", "key")
	assert.Equal(t, apperr.ErrCodeAdminOnly, apperr.CodeOf(err))
}
