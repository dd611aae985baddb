package usecase

import (
	"context"
	"fmt"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/domain/apperr"
)

// AdminUseCase holds the admin capability: registry mutation and withdrawal
// of protocol-owned funds. The capability is bound to one address at
// construction and checked on every operation.
type AdminUseCase struct {
	store        outbound.Store
	token        outbound.TokenClient
	events       outbound.EventPublisher
	adminAddress string
	account      string
}

// NewAdminUseCase creates the admin operations bound to adminAddress.
func NewAdminUseCase(store outbound.Store, token outbound.TokenClient, events outbound.EventPublisher, adminAddress, account string) *AdminUseCase {
	return &AdminUseCase{
		store:        store,
		token:        token,
		events:       events,
		adminAddress: adminAddress,
		account:      account,
	}
}

func (uc *AdminUseCase) authorize(caller string) error {
	if caller == "" || caller != uc.adminAddress {
		return apperr.ErrAdminOnly(caller)
	}
	return nil
}

// OwnerWithdraw moves protocol funds out of the pooled token account. The
// solvency guard caps it at heldBalance minus everything owed to committers
// and the slashed pool; slashed funds leave only through WithdrawSlashed.
func (uc *AdminUseCase) OwnerWithdraw(ctx context.Context, caller string, amount int64) error {
	if err := uc.authorize(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return apperr.ErrInvalidAmount(fmt.Sprintf("amount: %d", amount))
	}

	return uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		held, err := uc.token.BalanceOf(ctx, uc.account)
		if err != nil {
			return apperr.ErrTokenUnreachable(err.Error())
		}
		agg, err := r.Balances().Aggregates(ctx)
		if err != nil {
			return err
		}
		available := held - agg.CommitterBalance - agg.SlashedBalance
		if amount > available {
			return apperr.ErrInsufficientAvailableBalance(amount, available)
		}

		switch res := uc.token.Transfer(ctx, caller, amount); res.Status {
		case outbound.TransferOK:
			return nil
		case outbound.TransferRejected:
			return apperr.ErrTransferFailed(res.Reason)
		default:
			return apperr.ErrTokenUnreachable(res.Reason)
		}
	})
}

// WithdrawSlashed moves forfeited funds out of the slashed pool.
func (uc *AdminUseCase) WithdrawSlashed(ctx context.Context, caller string, amount int64) error {
	if err := uc.authorize(caller); err != nil {
		return err
	}
	if amount <= 0 {
		return apperr.ErrInvalidAmount(fmt.Sprintf("amount: %d", amount))
	}

	return uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		agg, err := r.Balances().Aggregates(ctx)
		if err != nil {
			return err
		}
		if amount > agg.SlashedBalance {
			return apperr.ErrInsufficientSlashedBalance(amount, agg.SlashedBalance)
		}
		if err := r.Balances().AddSlashedBalance(ctx, -amount); err != nil {
			return err
		}

		switch res := uc.token.Transfer(ctx, caller, amount); res.Status {
		case outbound.TransferOK:
			return nil
		case outbound.TransferRejected:
			return apperr.ErrTransferFailed(res.Reason)
		default:
			return apperr.ErrTokenUnreachable(res.Reason)
		}
	})
}

// RegisterActivity adds a stakeable activity to the registry.
func (uc *AdminUseCase) RegisterActivity(ctx context.Context, caller, name string, measures []string, lower, upper int64, oracleRef string) (*domain.Activity, error) {
	if err := uc.authorize(caller); err != nil {
		return nil, err
	}
	activity, err := domain.NewActivity(name, measures, lower, upper, oracleRef)
	if err != nil {
		return nil, err
	}

	err = uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		existing, err := r.Activities().Get(ctx, activity.Key)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.ErrActivityExists(activity.Key)
		}
		return r.Activities().Create(ctx, activity)
	})
	if err != nil {
		return nil, err
	}

	uc.publishActivityUpdated(ctx, caller, activity.Key, "registered")
	return activity, nil
}

// UpdateActivityOracle points an existing activity at a new oracle.
func (uc *AdminUseCase) UpdateActivityOracle(ctx context.Context, caller, key, oracleRef string) error {
	if err := uc.authorize(caller); err != nil {
		return err
	}
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		activity, err := r.Activities().Get(ctx, key)
		if err != nil {
			return err
		}
		if activity == nil {
			return apperr.ErrActivityNotFound(key)
		}
		activity.OracleRef = oracleRef
		return r.Activities().Update(ctx, activity)
	})
	if err != nil {
		return err
	}
	uc.publishActivityUpdated(ctx, caller, key, "oracle")
	return nil
}

// UpdateActivityAllowed toggles an existing activity without deleting it.
func (uc *AdminUseCase) UpdateActivityAllowed(ctx context.Context, caller, key string, allowed bool) error {
	if err := uc.authorize(caller); err != nil {
		return err
	}
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		activity, err := r.Activities().Get(ctx, key)
		if err != nil {
			return err
		}
		if activity == nil {
			return apperr.ErrActivityNotFound(key)
		}
		activity.Allowed = allowed
		return r.Activities().Update(ctx, activity)
	})
	if err != nil {
		return err
	}
	uc.publishActivityUpdated(ctx, caller, key, "allowed")
	return nil
}

// DeleteActivity removes a registry entry. Rare by design; disabling via
// UpdateActivityAllowed is the usual path.
func (uc *AdminUseCase) DeleteActivity(ctx context.Context, caller, key string) error {
	if err := uc.authorize(caller); err != nil {
		return err
	}
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		activity, err := r.Activities().Get(ctx, key)
		if err != nil {
			return err
		}
		if activity == nil {
			return apperr.ErrActivityNotFound(key)
		}
		return r.Activities().Delete(ctx, key)
	})
	if err != nil {
		return err
	}
	uc.publishActivityUpdated(ctx, caller, key, "deleted")
	return nil
}

func (uc *AdminUseCase) publishActivityUpdated(ctx context.Context, caller, key, change string) {
	publish(ctx, uc.events, domain.NewEvent(domain.EventTypeActivityUpdated, caller, map[string]interface{}{
		"activity_key": key,
		"change":       change,
	}))
}
