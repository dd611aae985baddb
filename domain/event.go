package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType labels an observable ledger side effect.
type EventType string

const (
	EventTypeDeposit         EventType = "ledger.deposit"
	EventTypeWithdrawal      EventType = "ledger.withdrawal"
	EventTypeNewCommitment   EventType = "commitment.created"
	EventTypeCommitmentEnded EventType = "commitment.ended"
	EventTypeActivityUpdated EventType = "activity.updated"
)

// Event is an observable notification emitted after an operation commits.
// Events never carry owned state; the ledger is the source of truth.
type Event struct {
	ID         string                 `json:"id"`
	Type       EventType              `json:"type"`
	Actor      string                 `json:"actor"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// NewEvent creates an event with a generated ID and current timestamp.
func NewEvent(eventType EventType, actor string, payload map[string]interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Actor:      actor,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}
