package usecase

import (
	"context"

	"github.com/commitpool/commitpool/application/port/outbound"
	"github.com/commitpool/commitpool/domain"
)

// ActivitySeed is a configured activity loaded at startup.
type ActivitySeed struct {
	Name           string
	Measures       []string
	GoalLowerBound int64
	GoalUpperBound int64
	OracleRef      string
}

// SeedActivities registers the configured activities, skipping ones already
// present. Returns how many were created.
func SeedActivities(ctx context.Context, store outbound.Store, seeds []ActivitySeed) (int, error) {
	created := 0
	err := store.Atomic(ctx, func(r outbound.Repositories) error {
		for _, seed := range seeds {
			activity, err := domain.NewActivity(seed.Name, seed.Measures, seed.GoalLowerBound, seed.GoalUpperBound, seed.OracleRef)
			if err != nil {
				return err
			}
			existing, err := r.Activities().Get(ctx, activity.Key)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := r.Activities().Create(ctx, activity); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
