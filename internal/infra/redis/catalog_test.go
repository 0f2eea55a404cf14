package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/memory"
)

func TestCatalogCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	catalog := NewCatalog(client, loader, time.Minute)
	ctx := context.Background()

	questions, err := catalog.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 || loader.calls != 1 {
		t.Fatalf("expected 2 questions from one load, got %d (calls=%d)", len(questions), loader.calls)
	}
	if !mr.Exists("quiz:catalog:questions") {
		t.Fatalf("expected catalog hash to be set")
	}
	if mr.TTL("quiz:catalog:questions") < time.Minute {
		t.Fatalf("expected ttl of at least a minute, got %v", mr.TTL("quiz:catalog:questions"))
	}

	// Second call should hit cache, loader not incremented.
	q, err := catalog.GetQuestion(ctx, "q2")
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.CorrectAnswer != "4" || q.Difficulty != domain.DifficultyMedium {
		t.Fatalf("unexpected cached question %+v", q)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestCatalogReloadsAfterInvalidate(t *testing.T) {
	_, client := newTestRedis(t)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	catalog := NewCatalog(client, loader, time.Minute)
	ctx := context.Background()

	if _, err := catalog.ListQuestions(ctx); err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if err := catalog.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := catalog.GetQuestion(ctx, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Text: "Capital of France?", Difficulty: domain.DifficultyEasy, CorrectAnswer: "Paris", Hints: []string{"Europe"}},
		{ID: "q2", Text: "What is 2 + 2?", Difficulty: domain.DifficultyMedium, CorrectAnswer: "4", MaxAttempts: 3},
	}
}
