package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/domain/apperr"
)

// DefaultCommitmentDuration is the commitment window applied when the caller
// does not pick one.
const DefaultCommitmentDuration = 7 * 24 * time.Hour

// MakeCommitmentRequest carries the parameters of a new commitment.
type MakeCommitmentRequest struct {
	ActivityKey     string `json:"activity_key"`
	MeasureIndex    int    `json:"measure_index"`
	GoalValue       int64  `json:"goal_value"`
	Stake           int64  `json:"stake"`
	StartOffsetDays int    `json:"start_offset_days"`
	DurationDays    int    `json:"duration_days"`
	UserID          string `json:"user_id"`
}

// SettlementResult reports the outcome of processing a commitment.
type SettlementResult struct {
	Committer   string `json:"committer"`
	ActivityKey string `json:"activity_key"`
	Stake       int64  `json:"stake"`
	Met         bool   `json:"met"`
}

// CommitmentUseCase is the commitment lifecycle state machine: None to Active
// through Make/DepositAndCommit, Active to Resolved through Process.
type CommitmentUseCase struct {
	store           outbound.Store
	token           outbound.TokenClient
	oracle          outbound.Oracle
	events          outbound.EventPublisher
	account         string
	defaultDuration time.Duration
	now             func() time.Time
}

// NewCommitmentUseCase creates the commitment engine.
func NewCommitmentUseCase(store outbound.Store, token outbound.TokenClient, oracle outbound.Oracle, events outbound.EventPublisher, account string, defaultDuration time.Duration) *CommitmentUseCase {
	if defaultDuration <= 0 {
		defaultDuration = DefaultCommitmentDuration
	}
	return &CommitmentUseCase{
		store:           store,
		token:           token,
		oracle:          oracle,
		events:          events,
		account:         account,
		defaultDuration: defaultDuration,
		now:             time.Now,
	}
}

// Make opens a commitment for the committer: single active commitment per
// user, activity resolved through the registry, goal inside the inclusive
// bounds, stake covered by the deposited balance. The stake stays inside the
// balance as a logical lock; no tokens move.
func (uc *CommitmentUseCase) Make(ctx context.Context, committer string, req MakeCommitmentRequest) (*domain.Commitment, error) {
	if err := validateTiming(req); err != nil {
		return nil, err
	}

	var commitment *domain.Commitment
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		c, err := uc.makeIn(ctx, r, committer, req)
		if err != nil {
			return err
		}
		commitment = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, uc.events, newCommitmentEvent(commitment))
	return commitment, nil
}

// DepositAndCommit performs Deposit then Make in one atomic operation: the
// first failing step aborts the whole call with no partial state.
func (uc *CommitmentUseCase) DepositAndCommit(ctx context.Context, committer string, amount int64, req MakeCommitmentRequest) (*domain.Commitment, error) {
	if amount <= 0 {
		return nil, apperr.ErrInvalidAmount(fmt.Sprintf("amount: %d", amount))
	}
	if err := validateTiming(req); err != nil {
		return nil, err
	}

	var commitment *domain.Commitment
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		if err := depositFunds(ctx, r, uc.token, committer, uc.account, amount); err != nil {
			return err
		}
		c, err := uc.makeIn(ctx, r, committer, req)
		if err != nil {
			return err
		}
		commitment = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, uc.events, domain.NewEvent(domain.EventTypeDeposit, committer, map[string]interface{}{
		"amount": amount,
	}))
	publish(ctx, uc.events, newCommitmentEvent(commitment))
	return commitment, nil
}

// Process resolves a commitment after its end time. A met verdict releases
// the stake in place; not met (or an unusable oracle result) moves the stake
// into the slashed pool. The commitment slot is deleted either way, so a
// second call fails with NoActiveCommitment instead of settling twice.
func (uc *CommitmentUseCase) Process(ctx context.Context, committer string) (*SettlementResult, error) {
	var result *SettlementResult
	err := uc.store.Atomic(ctx, func(r outbound.Repositories) error {
		commitment, err := r.Commitments().Get(ctx, committer)
		if err != nil {
			return err
		}
		if commitment == nil {
			return apperr.ErrNoActiveCommitment(committer)
		}
		if !commitment.Ended(uc.now()) {
			return apperr.ErrCommitmentStillActive(committer)
		}

		met := uc.consultOracle(ctx, r, commitment) == outbound.OracleMet
		if !met {
			// Slash: stake leaves the committer balance for the protocol pool.
			if err := r.Balances().Add(ctx, committer, -commitment.Stake); err != nil {
				return err
			}
			if err := r.Balances().AddCommitterBalance(ctx, -commitment.Stake); err != nil {
				return err
			}
			if err := r.Balances().AddSlashedBalance(ctx, commitment.Stake); err != nil {
				return err
			}
		}

		if err := r.Commitments().Delete(ctx, committer); err != nil {
			return err
		}

		result = &SettlementResult{
			Committer:   committer,
			ActivityKey: commitment.ActivityKey,
			Stake:       commitment.Stake,
			Met:         met,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, uc.events, domain.NewEvent(domain.EventTypeCommitmentEnded, committer, map[string]interface{}{
		"activity_key": result.ActivityKey,
		"stake":        result.Stake,
		"met":          result.Met,
	}))
	return result, nil
}

// Get returns the caller's active commitment.
func (uc *CommitmentUseCase) Get(ctx context.Context, committer string) (*domain.Commitment, error) {
	commitment, err := uc.store.Commitments().Get(ctx, committer)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, apperr.ErrNoActiveCommitment(committer)
	}
	return commitment, nil
}

func (uc *CommitmentUseCase) makeIn(ctx context.Context, r outbound.Repositories, committer string, req MakeCommitmentRequest) (*domain.Commitment, error) {
	existing, err := r.Commitments().Get(ctx, committer)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrAlreadyCommitted(committer)
	}

	activity, err := r.Activities().Get(ctx, req.ActivityKey)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, apperr.ErrActivityNotFound(req.ActivityKey)
	}
	if !activity.Allowed {
		return nil, apperr.ErrActivityNotAllowed(req.ActivityKey)
	}
	if _, err := activity.Measure(req.MeasureIndex); err != nil {
		return nil, err
	}
	if err := activity.ValidateGoal(req.GoalValue); err != nil {
		return nil, err
	}

	if req.Stake <= 0 {
		return nil, apperr.ErrInvalidStake(fmt.Sprintf("stake: %d", req.Stake))
	}
	balance, err := r.Balances().Get(ctx, committer)
	if err != nil {
		return nil, err
	}
	if req.Stake > balance {
		return nil, apperr.ErrInsufficientStakeableBalance(req.Stake, balance)
	}

	duration := uc.defaultDuration
	if req.DurationDays > 0 {
		duration = time.Duration(req.DurationDays) * 24 * time.Hour
	}
	start := uc.now().Add(time.Duration(req.StartOffsetDays) * 24 * time.Hour)

	commitment := domain.NewCommitment(committer, req.ActivityKey, req.MeasureIndex, req.GoalValue, req.Stake, start, duration, req.UserID)
	if err := r.Commitments().Create(ctx, commitment); err != nil {
		return nil, err
	}
	return commitment, nil
}

// consultOracle asks the responsible oracle for a verdict. The activity may
// have been deleted while the commitment ran; the check is still answerable
// by key.
func (uc *CommitmentUseCase) consultOracle(ctx context.Context, r outbound.Repositories, c *domain.Commitment) outbound.OracleResult {
	if uc.oracle == nil {
		return outbound.OracleUnknown
	}
	measure := ""
	if activity, err := r.Activities().Get(ctx, c.ActivityKey); err == nil && activity != nil {
		if c.MeasureIndex >= 0 && c.MeasureIndex < len(activity.Measures) {
			measure = activity.Measures[c.MeasureIndex].Name
		}
	}
	return uc.oracle.GoalMet(ctx, outbound.GoalCheck{
		Committer:   c.Committer,
		UserID:      c.UserID,
		ActivityKey: c.ActivityKey,
		Measure:     measure,
		GoalValue:   c.GoalValue,
		Start:       c.StartTime,
		End:         c.EndTime,
	})
}

func validateTiming(req MakeCommitmentRequest) error {
	if req.StartOffsetDays < 0 {
		return apperr.ErrInvalidRequest("start offset cannot be negative")
	}
	if req.DurationDays < 0 {
		return apperr.ErrInvalidRequest("duration cannot be negative")
	}
	return nil
}

func newCommitmentEvent(c *domain.Commitment) domain.Event {
	return domain.NewEvent(domain.EventTypeNewCommitment, c.Committer, map[string]interface{}{
		"activity_key": c.ActivityKey,
		"goal_value":   c.GoalValue,
		"start_time":   c.StartTime,
		"end_time":     c.EndTime,
		"stake":        c.Stake,
		"user_id":      c.UserID,
	})
}
