package usecase

import (
	"context"
	"fmt"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/domain/apperr"
)

// LedgerUseCase handles deposits and withdrawals against the balance ledger.
type LedgerUseCase struct {
	store   outbound.Store
	token   outbound.TokenClient
	events  outbound.EventPublisher
	account string
}

// NewLedgerUseCase creates the ledger use case. account is the token address
// pooling all deposited funds.
func NewLedgerUseCase(store outbound.Store, token outbound.TokenClient, events outbound.EventPublisher, account string) *LedgerUseCase {
	return &LedgerUseCase{
		store:   store,
		token:   token,
		events:  events,
		account: account,
	}
}

// Deposit pulls amount from the committer via the token bridge and credits
// the ledger. The bridge call and the ledger mutation commit together or not
// at all.
func (uc *LedgerUseCase) Deposit(ctx context.Context, committer string, amount int64) (*domain.BalanceView, error) {
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount(fmt.Sprintf("amount: %d", amount))
	}

	var view *domain.BalanceView
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		if err := depositFunds(ctx, r, uc.token, committer, uc.account, amount); err != nil {
			return err
		}
		v, err := balanceView(ctx, r, committer)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, uc.events, domain.NewEvent(domain.EventTypeDeposit, committer, map[string]interface{}{
		"amount": amount,
	}))
	return view, nil
}

// Withdraw debits the ledger and pushes amount back to the committer. Ledger
// state is updated before the external transfer; a failed transfer rolls the
// whole operation back. Funds locked by an active commitment cannot leave.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, committer string, amount int64) (*domain.BalanceView, error) {
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount(fmt.Sprintf("amount: %d", amount))
	}

	var view *domain.BalanceView
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		balance, err := r.Balances().Get(ctx, committer)
		if err != nil {
			return err
		}
		if amount > balance {
			return apperr.ErrInsufficientBalance(amount, balance)
		}

		commitment, err := r.Commitments().Get(ctx, committer)
		if err != nil {
			return err
		}
		var locked int64
		if commitment != nil {
			locked = commitment.Stake
		}
		if amount > balance-locked {
			return apperr.ErrStakeLocked(amount, balance-locked)
		}

		if err := r.Balances().Add(ctx, committer, -amount); err != nil {
			return err
		}
		if err := r.Balances().AddCommitterBalance(ctx, -amount); err != nil {
			return err
		}

		switch res := uc.token.Transfer(ctx, committer, amount); res.Status {
		case outbound.TransferOK:
		case outbound.TransferRejected:
			return apperr.ErrTransferFailed(res.Reason)
		default:
			return apperr.ErrTokenUnreachable(res.Reason)
		}

		v, err := balanceView(ctx, r, committer)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, uc.events, domain.NewEvent(domain.EventTypeWithdrawal, committer, map[string]interface{}{
		"amount": amount,
	}))
	return view, nil
}

// Balance returns the committer's balance, the stake locked by an active
// commitment and the withdrawable remainder.
func (uc *LedgerUseCase) Balance(ctx context.Context, committer string) (*domain.BalanceView, error) {
	return balanceView(ctx, uc.store, committer)
}

// Aggregates returns the committer and slashed totals.
func (uc *LedgerUseCase) Aggregates(ctx context.Context) (domain.Aggregates, error) {
	return uc.store.Balances().Aggregates(ctx)
}

// depositFunds pulls funds over the bridge and credits the ledger; shared by
// Deposit and DepositAndCommit so both run it inside one transaction.
func depositFunds(ctx context.Context, r outbound.Repositories, token outbound.TokenClient, committer, account string, amount int64) error {
	switch res := token.TransferFrom(ctx, committer, account, amount); res.Status {
	case outbound.TransferOK:
	case outbound.TransferRejected:
		return apperr.ErrTransferFailed(res.Reason)
	default:
		return apperr.ErrTokenUnreachable(res.Reason)
	}

	if err := r.Balances().Add(ctx, committer, amount); err != nil {
		return err
	}
	return r.Balances().AddCommitterBalance(ctx, amount)
}

func balanceView(ctx context.Context, r outbound.Repositories, committer string) (*domain.BalanceView, error) {
	balance, err := r.Balances().Get(ctx, committer)
	if err != nil {
		return nil, err
	}
	commitment, err := r.Commitments().Get(ctx, committer)
	if err != nil {
		return nil, err
	}
	var locked int64
	if commitment != nil {
		locked = commitment.Stake
	}
	return &domain.BalanceView{
		Address:      committer,
		Balance:      balance,
		LockedStake:  locked,
		Withdrawable: balance - locked,
	}, nil
}

// publish delivers an event after commit; failures are swallowed because the
// ledger, not the event stream, is the source of truth.
func publish(ctx context.Context, events outbound.EventPublisher, event domain.Event) {
	if events == nil {
		return
	}
	_ = events.Publish(ctx, event)
}
