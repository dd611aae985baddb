// Package memory implements the ledger store in process memory. Atomic
// serializes every state-changing operation behind one mutex and applies
// mutations to a scratch copy that replaces the live state only on success,
// so a failing step never leaves partial effects behind.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
)

type state struct {
	balances         map[string]int64
	committerBalance int64
	slashedBalance   int64
	commitments      map[string]domain.Commitment
	activities       map[string]domain.Activity
	activityKeys     []string
}

func newState() *state {
	return &state{
		balances:    make(map[string]int64),
		commitments: make(map[string]domain.Commitment),
		activities:  make(map[string]domain.Activity),
	}
}

func (s *state) clone() *state {
	c := &state{
		balances:         make(map[string]int64, len(s.balances)),
		committerBalance: s.committerBalance,
		slashedBalance:   s.slashedBalance,
		commitments:      make(map[string]domain.Commitment, len(s.commitments)),
		activities:       make(map[string]domain.Activity, len(s.activities)),
		activityKeys:     append([]string(nil), s.activityKeys...),
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	for k, v := range s.commitments {
		c.commitments[k] = cloneCommitment(v)
	}
	for k, v := range s.activities {
		c.activities[k] = cloneActivity(v)
	}
	return c
}

func cloneCommitment(c domain.Commitment) domain.Commitment {
	return c
}

func cloneActivity(a domain.Activity) domain.Activity {
	a.Measures = append([]domain.Measure(nil), a.Measures...)
	return a
}

// Store is the in-memory ledger store, used for unit tests and mock mode.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// Atomic runs fn against a scratch copy of the state; the copy becomes the
// live state only when fn succeeds.
func (s *Store) Atomic(ctx context.Context, fn func(r outbound.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scratch := s.state.clone()
	if err := fn(repositories{state: scratch}); err != nil {
		return err
	}
	s.state = scratch
	return nil
}

// Balances provides read access to the live state.
func (s *Store) Balances() outbound.BalanceRepository {
	return lockedRepositories{store: s}.Balances()
}

func (s *Store) Commitments() outbound.CommitmentRepository {
	return lockedRepositories{store: s}.Commitments()
}

func (s *Store) Activities() outbound.ActivityRepository {
	return lockedRepositories{store: s}.Activities()
}

// repositories binds the repository views to one state instance (the scratch
// copy inside Atomic).
type repositories struct {
	state *state
}

func (r repositories) Balances() outbound.BalanceRepository       { return balanceRepo{r.state, nil} }
func (r repositories) Commitments() outbound.CommitmentRepository { return commitmentRepo{r.state, nil} }
func (r repositories) Activities() outbound.ActivityRepository    { return activityRepo{r.state, nil} }

// lockedRepositories serves reads outside Atomic, taking the store mutex per
// call so readers never observe a half-applied swap.
type lockedRepositories struct {
	store *Store
}

func (r lockedRepositories) Balances() outbound.BalanceRepository {
	return balanceRepo{nil, r.store}
}

func (r lockedRepositories) Commitments() outbound.CommitmentRepository {
	return commitmentRepo{nil, r.store}
}

func (r lockedRepositories) Activities() outbound.ActivityRepository {
	return activityRepo{nil, r.store}
}

type balanceRepo struct {
	state *state
	store *Store
}

func (r balanceRepo) with(fn func(s *state) error) error {
	if r.state != nil {
		return fn(r.state)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r balanceRepo) Get(ctx context.Context, address string) (int64, error) {
	var out int64
	err := r.with(func(s *state) error {
		out = s.balances[address]
		return nil
	})
	return out, err
}

func (r balanceRepo) Add(ctx context.Context, address string, delta int64) error {
	return r.with(func(s *state) error {
		next := s.balances[address] + delta
		if next < 0 {
			return fmt.Errorf("balance for %s would become negative (%d)", address, next)
		}
		if next == 0 {
			delete(s.balances, address)
			return nil
		}
		s.balances[address] = next
		return nil
	})
}

func (r balanceRepo) Aggregates(ctx context.Context) (domain.Aggregates, error) {
	var out domain.Aggregates
	err := r.with(func(s *state) error {
		out = domain.Aggregates{CommitterBalance: s.committerBalance, SlashedBalance: s.slashedBalance}
		return nil
	})
	return out, err
}

func (r balanceRepo) AddCommitterBalance(ctx context.Context, delta int64) error {
	return r.with(func(s *state) error {
		next := s.committerBalance + delta
		if next < 0 {
			return fmt.Errorf("committer balance would become negative (%d)", next)
		}
		s.committerBalance = next
		return nil
	})
}

func (r balanceRepo) AddSlashedBalance(ctx context.Context, delta int64) error {
	return r.with(func(s *state) error {
		next := s.slashedBalance + delta
		if next < 0 {
			return fmt.Errorf("slashed balance would become negative (%d)", next)
		}
		s.slashedBalance = next
		return nil
	})
}

type commitmentRepo struct {
	state *state
	store *Store
}

func (r commitmentRepo) with(fn func(s *state) error) error {
	if r.state != nil {
		return fn(r.state)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r commitmentRepo) Get(ctx context.Context, committer string) (*domain.Commitment, error) {
	var out *domain.Commitment
	err := r.with(func(s *state) error {
		if c, ok := s.commitments[committer]; ok {
			copied := cloneCommitment(c)
			out = &copied
		}
		return nil
	})
	return out, err
}

func (r commitmentRepo) Create(ctx context.Context, c *domain.Commitment) error {
	return r.with(func(s *state) error {
		if _, ok := s.commitments[c.Committer]; ok {
			return fmt.Errorf("commitment slot for %s already occupied", c.Committer)
		}
		s.commitments[c.Committer] = cloneCommitment(*c)
		return nil
	})
}

func (r commitmentRepo) Delete(ctx context.Context, committer string) error {
	return r.with(func(s *state) error {
		if _, ok := s.commitments[committer]; !ok {
			return fmt.Errorf("no commitment slot for %s", committer)
		}
		delete(s.commitments, committer)
		return nil
	})
}

type activityRepo struct {
	state *state
	store *Store
}

func (r activityRepo) with(fn func(s *state) error) error {
	if r.state != nil {
		return fn(r.state)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r activityRepo) Get(ctx context.Context, key string) (*domain.Activity, error) {
	var out *domain.Activity
	err := r.with(func(s *state) error {
		if a, ok := s.activities[key]; ok {
			copied := cloneActivity(a)
			out = &copied
		}
		return nil
	})
	return out, err
}

func (r activityRepo) Create(ctx context.Context, a *domain.Activity) error {
	return r.with(func(s *state) error {
		if _, ok := s.activities[a.Key]; ok {
			return fmt.Errorf("activity %s already registered", a.Key)
		}
		s.activities[a.Key] = cloneActivity(*a)
		s.activityKeys = append(s.activityKeys, a.Key)
		return nil
	})
}

func (r activityRepo) Update(ctx context.Context, a *domain.Activity) error {
	return r.with(func(s *state) error {
		if _, ok := s.activities[a.Key]; !ok {
			return fmt.Errorf("activity %s not registered", a.Key)
		}
		s.activities[a.Key] = cloneActivity(*a)
		return nil
	})
}

func (r activityRepo) Delete(ctx context.Context, key string) error {
	return r.with(func(s *state) error {
		if _, ok := s.activities[key]; !ok {
			return fmt.Errorf("activity %s not registered", key)
		}
		delete(s.activities, key)
		for i, k := range s.activityKeys {
			if k == key {
				s.activityKeys = append(s.activityKeys[:i], s.activityKeys[i+1:]...)
				break
			}
		}
		return nil
	})
}

func (r activityRepo) Keys(ctx context.Context) ([]string, error) {
	var out []string
	err := r.with(func(s *state) error {
		out = append([]string(nil), s.activityKeys...)
		return nil
	})
	return out, err
}

func (r activityRepo) List(ctx context.Context) ([]*domain.Activity, error) {
	var out []*domain.Activity
	err := r.with(func(s *state) error {
		for _, key := range s.activityKeys {
			if a, ok := s.activities[key]; ok {
				copied := cloneActivity(a)
				out = append(out, &copied)
			}
		}
		return nil
	})
	return out, err
}
