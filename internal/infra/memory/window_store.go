package memory

import (
	"context"
	"sync"

	"team-quiz-service/internal/domain"
)

// WindowStore keeps the competition window in process memory.
type WindowStore struct {
	mu     sync.Mutex
	window domain.CompetitionWindow
}

// NewWindowStore starts with the default, closed window.
func NewWindowStore() *WindowStore {
	return &WindowStore{window: domain.DefaultWindow()}
}

func (s *WindowStore) Get(_ context.Context) (domain.CompetitionWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyWindow(s.window), nil
}

func (s *WindowStore) Update(_ context.Context, fn func(*domain.CompetitionWindow) error) (domain.CompetitionWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := copyWindow(s.window)
	if err := fn(&working); err != nil {
		return domain.CompetitionWindow{}, err
	}
	s.window = working
	return copyWindow(working), nil
}

func copyWindow(w domain.CompetitionWindow) domain.CompetitionWindow {
	if w.StartTime != nil {
		t := *w.StartTime
		w.StartTime = &t
	}
	return w
}
