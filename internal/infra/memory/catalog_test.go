package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"team-quiz-service/internal/domain"
)

func TestCatalogCaches(t *testing.T) {
	loader := &countingLoader{QuestionLoader: NewStaticQuestionLoader(sampleQuestions())}
	catalog := NewCatalog(loader, time.Minute)

	if _, err := catalog.ListQuestions(context.Background()); err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	q, err := catalog.GetQuestion(context.Background(), "q2")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.CorrectAnswer != "4" {
		t.Fatalf("unexpected question %+v", q)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	catalog.Invalidate()
	if _, err := catalog.ListQuestions(context.Background()); err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls)
	}
}

func TestCatalogUnknownQuestion(t *testing.T) {
	catalog := NewCatalog(NewStaticQuestionLoader(sampleQuestions()), time.Minute)
	if _, err := catalog.GetQuestion(context.Background(), "nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
}

func TestWindowStoreUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewWindowStore()

	w, _ := store.Get(ctx)
	if w.IsLive || w.DurationMinutes != domain.DefaultDurationMinutes {
		t.Fatalf("unexpected default window %+v", w)
	}

	live := true
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	updated, err := store.Update(ctx, func(w *domain.CompetitionWindow) error {
		return w.Apply(domain.WindowUpdate{IsLive: &live}, now)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.IsLive || updated.Version != 1 {
		t.Fatalf("unexpected window %+v", updated)
	}

	bad := -1
	if _, err := store.Update(ctx, func(w *domain.CompetitionWindow) error {
		return w.Apply(domain.WindowUpdate{DurationMinutes: &bad}, now)
	}); !errors.Is(err, domain.ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
	w, _ = store.Get(ctx)
	if w.Version != 1 {
		t.Fatalf("failed update must not bump version, got %d", w.Version)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "Capital of France?", Difficulty: domain.DifficultyEasy, CorrectAnswer: "Paris"},
		{ID: "q2", Text: "What is 2 + 2?", Difficulty: domain.DifficultyMedium, CorrectAnswer: "4"},
	}
}
