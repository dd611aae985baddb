package events

import (
	"context"

	"github.com/commitpool/commitpool/domain"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

// LogPublisher writes events to the structured log. Used when no Redis is
// configured; observers tail the log instead of a channel.
type LogPublisher struct {
	logger logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.logger.Info(ctx, "event", map[string]interface{}{
		"event_id":   event.ID,
		"event_type": string(event.Type),
		"actor":      event.Actor,
		"payload":    event.Payload,
	})
	return nil
}
