package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/domain/apperr"
	"github.com/commitpool/commitpool/infrastructure/adapter/memory"
)

func TestRegistryListKeepsRegistrationOrder(t *testing.T) {
	store := memory.NewStore()
	admin := NewAdminUseCase(store, nil, nil, testAdmin, testAccount)
	registry := NewRegistryUseCase(store)

	for _, name := range []string{"biking", "running", "swimming"} {
		_, err := admin.RegisterActivity(context.Background(), testAdmin, name, []string{"km"}, 1, 100, "")
		require.NoError(t, err)
	}

	activities, err := registry.List(context.Background())
	require.NoError(t, err)
	require.Len(t, activities, 3)
	assert.Equal(t, "biking", activities[0].Name)
	assert.Equal(t, "running", activities[1].Name)
	assert.Equal(t, "swimming", activities[2].Name)
}

func TestRegistryKeyAt(t *testing.T) {
	store := memory.NewStore()
	admin := NewAdminUseCase(store, nil, nil, testAdmin, testAccount)
	registry := NewRegistryUseCase(store)

	activity, err := admin.RegisterActivity(context.Background(), testAdmin, "biking", []string{"km"}, 2, 1024, "")
	require.NoError(t, err)

	key, err := registry.KeyAt(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, activity.Key, key)
	assert.Equal(t, domain.ActivityKey("biking"), key)

	_, err = registry.KeyAt(context.Background(), 1)
	assert.Equal(t, apperr.ErrCodeIndexOutOfRange, apperr.CodeOf(err))

	_, err = registry.KeyAt(context.Background(), -1)
	assert.Equal(t, apperr.ErrCodeIndexOutOfRange, apperr.CodeOf(err))
}

func TestRegistryLookupDistinguishesMissingFromDisabled(t *testing.T) {
	store := memory.NewStore()
	admin := NewAdminUseCase(store, nil, nil, testAdmin, testAccount)
	registry := NewRegistryUseCase(store)

	_, err := registry.Lookup(context.Background(), "never-registered")
	assert.Equal(t, apperr.ErrCodeActivityNotFound, apperr.CodeOf(err))

	activity, err := admin.RegisterActivity(context.Background(), testAdmin, "biking", []string{"km"}, 2, 1024, "")
	require.NoError(t, err)
	require.NoError(t, admin.UpdateActivityAllowed(context.Background(), testAdmin, activity.Key, false))

	_, err = registry.Lookup(context.Background(), activity.Key)
	assert.Equal(t, apperr.ErrCodeActivityNotAllowed, apperr.CodeOf(err))
}

func TestSeedActivitiesSkipsExisting(t *testing.T) {
	store := memory.NewStore()
	seeds := []ActivitySeed{
		{Name: "biking", Measures: []string{"km"}, GoalLowerBound: 2, GoalUpperBound: 1024},
		{Name: "running", Measures: []string{"km"}, GoalLowerBound: 1, GoalUpperBound: 500},
	}

	created, err := SeedActivities(context.Background(), store, seeds)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = SeedActivities(context.Background(), store, seeds)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	activities, err := store.Activities().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, activities, 2)
}
