package app

import (
	"context"

	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// Info is the public quiz metadata shown before a team starts.
type Info struct {
	DurationMinutes int  `json:"duration"`
	QuestionCount   int  `json:"questionCount"`
	IsLive          bool `json:"isLive"`
}

// GetWindow returns the current competition window.
func (s *QuizService) GetWindow(ctx context.Context) (domain.CompetitionWindow, error) {
	return s.windows.Get(ctx)
}

// SetWindow applies an admin change to the competition window atomically.
func (s *QuizService) SetWindow(ctx context.Context, update domain.WindowUpdate) (domain.CompetitionWindow, error) {
	window, err := s.windows.Update(ctx, func(w *domain.CompetitionWindow) error {
		return w.Apply(update, s.clock.Now())
	})
	if err != nil {
		return domain.CompetitionWindow{}, err
	}

	log.Info().
		Bool("live", window.IsLive).
		Int("duration_minutes", window.DurationMinutes).
		Int64("version", window.Version).
		Msg("competition window updated")
	s.emit(ctx, domain.EventWindowChanged, "", map[string]any{
		"isLive":    window.IsLive,
		"duration":  window.DurationMinutes,
		"startTime": window.StartTime,
		"version":   window.Version,
	})

	select {
	case s.windowWakes <- struct{}{}:
	default:
	}
	return window, nil
}

// Info reports the window duration and the number of questions.
func (s *QuizService) Info(ctx context.Context) (Info, error) {
	window, err := s.windows.Get(ctx)
	if err != nil {
		return Info{}, err
	}
	questions, err := s.catalog.ListQuestions(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		DurationMinutes: window.DurationMinutes,
		QuestionCount:   len(questions),
		IsLive:          window.IsLive,
	}, nil
}
