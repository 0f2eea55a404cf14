package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDifficultyEconomy(t *testing.T) {
	cases := []struct {
		d      Difficulty
		points int
		hints  int
	}{
		{DifficultyEasy, 25, 1},
		{DifficultyMedium, 50, 2},
		{DifficultyHard, 100, 3},
		{Difficulty(""), 50, 2},
	}
	for _, c := range cases {
		if got := c.d.PointValue(); got != c.points {
			t.Fatalf("%q points: expected %d, got %d", c.d, c.points, got)
		}
		if got := c.d.MaxHints(); got != c.hints {
			t.Fatalf("%q hints: expected %d, got %d", c.d, c.hints, got)
		}
	}
	for i, want := range []int{5, 10, 15} {
		if got := HintCost(i); got != want {
			t.Fatalf("hint %d cost: expected %d, got %d", i, want, got)
		}
	}
}

func TestNormalizeAnswer(t *testing.T) {
	if NormalizeAnswer("  PaRiS\n") != "paris" {
		t.Fatalf("expected trimmed lowercase answer")
	}
}

func TestQuestionViewCapsHints(t *testing.T) {
	q := Question{ID: "q1", Difficulty: DifficultyEasy, CorrectAnswer: "x", Hints: []string{"a", "b", "c"}}
	v := q.View()
	if v.HintCount != 1 || v.MaxAttempts != 1 || v.Marks != 25 || v.Category != "General" {
		t.Fatalf("unexpected view %+v", v)
	}
	q.Difficulty = DifficultyHard
	q.Hints = []string{"a"}
	if q.View().HintCount != 1 {
		t.Fatalf("expected hint count capped by defined hints")
	}
}

func TestWindowApplyStampsStart(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	w := DefaultWindow()
	live := true
	if err := w.Apply(WindowUpdate{IsLive: &live}, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if w.StartTime == nil || !w.StartTime.Equal(now) || w.Version != 1 {
		t.Fatalf("expected start stamped at now, got %+v", w)
	}

	// live -> live keeps the original start
	if err := w.Apply(WindowUpdate{IsLive: &live}, now.Add(time.Minute)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !w.StartTime.Equal(now) {
		t.Fatalf("expected start unchanged, got %v", w.StartTime)
	}

	off := false
	if err := w.Apply(WindowUpdate{IsLive: &off}, now); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if w.StartTime != nil || w.IsLive {
		t.Fatalf("expected start cleared, got %+v", w)
	}

	zero := 0
	if err := w.Apply(WindowUpdate{DurationMinutes: &zero}, now); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
}

func TestWindowExpiry(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	w := CompetitionWindow{IsLive: true, DurationMinutes: 10, StartTime: &start}

	if err := w.CheckOpen(start.Add(10 * time.Minute)); err != nil {
		t.Fatalf("expected open exactly at deadline, got %v", err)
	}
	if err := w.CheckOpen(start.Add(10*time.Minute + time.Second)); !errors.Is(err, ErrQuizExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if got := w.RemainingSeconds(start.Add(90 * time.Second)); got != 510 {
		t.Fatalf("expected 510 seconds left, got %d", got)
	}
	if err := DefaultWindow().CheckOpen(start); !errors.Is(err, ErrQuizNotLive) {
		t.Fatalf("expected not live, got %v", err)
	}
}

func TestKindOfUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("attempt: %w", ErrQuestionNotFound)
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected not_found, got %s", KindOf(wrapped))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("expected internal kind")
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := NewSession("t1")
	s.Record("q1").AttemptsUsed = 1
	c := s.Clone()
	c.Record("q1").AttemptsUsed = 2
	if s.Answers["q1"].AttemptsUsed != 1 {
		t.Fatalf("clone shares answer records")
	}
}
