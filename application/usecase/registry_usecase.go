package usecase

import (
	"context"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/domain/apperr"
)

// RegistryUseCase is the read contract of the activity registry.
type RegistryUseCase struct {
	store outbound.Store
}

func NewRegistryUseCase(store outbound.Store) *RegistryUseCase {
	return &RegistryUseCase{store: store}
}

// List returns every registered activity in registration order.
func (uc *RegistryUseCase) List(ctx context.Context) ([]*domain.Activity, error) {
	return uc.store.Activities().List(ctx)
}

// Lookup resolves an activity by key. NotFound and NotAllowed are distinct so
// callers can tell "never existed" from "temporarily disabled".
func (uc *RegistryUseCase) Lookup(ctx context.Context, key string) (*domain.Activity, error) {
	activity, err := uc.store.Activities().Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, apperr.ErrActivityNotFound(key)
	}
	if !activity.Allowed {
		return nil, apperr.ErrActivityNotAllowed(key)
	}
	return activity, nil
}

// KeyAt enumerates activity keys by index for external discovery.
func (uc *RegistryUseCase) KeyAt(ctx context.Context, index int) (string, error) {
	keys, err := uc.store.Activities().Keys(ctx)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(keys) {
		return "", apperr.ErrIndexOutOfRange(index, len(keys))
	}
	return keys[index], nil
}
