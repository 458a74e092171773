// Package events publishes consultation lifecycle events for downstream
// consumers such as notification workers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TypeConsultationCreated      = "consultation.created"
	TypeConsultationUpdated      = "consultation.updated"
	TypeConsultationReplyCreated = "consultation.reply_created"
)

type Event struct {
	ID             uuid.UUID              `json:"id"`
	Type           string                 `json:"type"`
	ConsultationID uuid.UUID              `json:"consultation_id"`
	ActorID        uuid.UUID              `json:"actor_id"`
	OccurredAt     time.Time              `json:"occurred_at"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType string, consultationID, actorID uuid.UUID, data map[string]interface{}) Event {
	return Event{
		ID:             uuid.New(),
		Type:           eventType,
		ConsultationID: consultationID,
		ActorID:        actorID,
		OccurredAt:     time.Now().UTC(),
		Data:           data,
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
