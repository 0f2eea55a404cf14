package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// emit publishes an event after the state change has been committed. A publishing
// failure is logged and never undoes or fails the operation.
func (s *QuizService) emit(ctx context.Context, typ domain.EventType, teamID string, data map[string]any) {
	event := domain.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		TeamID:     teamID,
		OccurredAt: s.clock.Now(),
		Data:       data,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Str("event_type", string(typ)).Str("team_id", teamID).Msg("publish event failed")
	}
}

// logPublisher is the default EventPublisher when no broker is configured.
type logPublisher struct{}

func (logPublisher) Publish(_ context.Context, event domain.Event) error {
	log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("team_id", event.TeamID).
		Msg("event")
	return nil
}
