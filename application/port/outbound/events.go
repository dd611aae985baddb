package outbound

import (
	"context"

	"github.com/commitpool/commitpool/domain"
)

// EventPublisher delivers committed-state notifications to observers.
// Publishing happens only after the owning operation commits; a publish
// failure is logged, never propagated into the operation result.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}
