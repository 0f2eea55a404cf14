package conflict

import (
	"context"
	"errors"
	"testing"

	"team-quiz-service/internal/domain"
)

func TestRetryRecoversFromConflict(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return domain.ErrConcurrentUpdate
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryGivesUpAfterBudget(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func() error {
		calls++
		return domain.ErrConcurrentUpdate
	})
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected first try plus 3 retries, got %d calls", calls)
	}
}

func TestRetryStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func() error {
		calls++
		return domain.ErrAlreadySubmitted
	})
	if !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected fn error unchanged, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}
