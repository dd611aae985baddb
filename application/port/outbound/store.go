package outbound

import (
	"context"

	"github.com/commitpool/commitpool/domain"
)

// Repositories groups the three state owners: user balances plus aggregates,
// the per-committer commitment slot, and the activity registry.
type Repositories interface {
	Balances() BalanceRepository
	Commitments() CommitmentRepository
	Activities() ActivityRepository
}

// Store provides atomic, serialized access to ledger state. Atomic runs fn
// against repositories bound to one transaction: every mutation staged inside
// fn commits together or not at all, and concurrent Atomic calls never
// interleave their effects. Repository access outside Atomic is read-only by
// convention.
type Store interface {
	Repositories
	Atomic(ctx context.Context, fn func(r Repositories) error) error
}

// BalanceRepository owns per-user balances and the incremental aggregates.
type BalanceRepository interface {
	// Get returns the deposited balance for an address, zero when absent.
	Get(ctx context.Context, address string) (int64, error)
	// Add applies a signed delta to an address balance. A delta that would
	// drive the balance negative is a storage error, not a business rejection;
	// usecases validate funds before calling.
	Add(ctx context.Context, address string, delta int64) error
	// Aggregates returns the committer and slashed totals.
	Aggregates(ctx context.Context) (domain.Aggregates, error)
	// AddCommitterBalance applies a signed delta to the committer total.
	AddCommitterBalance(ctx context.Context, delta int64) error
	// AddSlashedBalance applies a signed delta to the slashed pool.
	AddSlashedBalance(ctx context.Context, delta int64) error
}

// CommitmentRepository owns the one-slot-per-committer commitment map.
type CommitmentRepository interface {
	// Get returns the active commitment, or (nil, nil) when none exists.
	Get(ctx context.Context, committer string) (*domain.Commitment, error)
	// Create stores a commitment; fails if the committer already has one.
	Create(ctx context.Context, c *domain.Commitment) error
	// Delete removes the commitment slot. Deleting an absent slot is an error.
	Delete(ctx context.Context, committer string) error
}

// ActivityRepository owns the activity registry.
type ActivityRepository interface {
	// Get returns the activity, or (nil, nil) when it was never registered.
	Get(ctx context.Context, key string) (*domain.Activity, error)
	Create(ctx context.Context, a *domain.Activity) error
	Update(ctx context.Context, a *domain.Activity) error
	Delete(ctx context.Context, key string) error
	// Keys lists registered activity keys in registration order.
	Keys(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]*domain.Activity, error)
}
