package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "events").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info().
		Str("event_id", e.ID.String()).
		Str("event_type", e.Type).
		Str("consultation_id", e.ConsultationID.String()).
		Str("actor_id", e.ActorID.String()).
		Time("occurred_at", e.OccurredAt).
		Interface("data", e.Data).
		Msg("event")
	return nil
}
