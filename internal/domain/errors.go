package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotLive is returned when the competition window is closed.
	ErrQuizNotLive = errors.New("quiz is not live")
	// ErrQuizExpired is returned when the global deadline has passed.
	ErrQuizExpired = errors.New("quiz time has expired")
	// ErrAlreadySubmitted is returned for any mutation of a frozen session.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrAlreadyCorrect is returned when a question was already answered correctly.
	ErrAlreadyCorrect = errors.New("question already answered correctly")
	// ErrNoAttemptsRemaining is returned once a question's attempts are spent.
	ErrNoAttemptsRemaining = errors.New("no attempts remaining")
	// ErrNoHintsAvailable covers out-of-order, exhausted or locked hint requests.
	ErrNoHintsAvailable = errors.New("no hints available")
	// ErrNotFound is the base for unknown teams and questions.
	ErrNotFound = errors.New("not found")
	// ErrSessionNotFound indicates the team never started the quiz.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)
	// ErrQuestionNotFound indicates an unknown question ID.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrConcurrentUpdate is retryable: the caller should repeat the whole operation.
	ErrConcurrentUpdate = errors.New("concurrent update conflict")
	// ErrInvalidWindow rejects an admin update with a non-positive duration.
	ErrInvalidWindow = errors.New("invalid competition window")
)

// Kind is the stable, transport-facing name of an error.
type Kind string

const (
	KindQuizNotLive         Kind = "quiz_not_live"
	KindQuizExpired         Kind = "quiz_expired"
	KindAlreadySubmitted    Kind = "already_submitted"
	KindAlreadyCorrect      Kind = "already_correct"
	KindNoAttemptsRemaining Kind = "no_attempts_remaining"
	KindNoHintsAvailable    Kind = "no_hints_available"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "concurrent_update_conflict"
	KindInvalid             Kind = "invalid_request"
	KindInternal            Kind = "internal"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrQuizNotLive, KindQuizNotLive},
	{ErrQuizExpired, KindQuizExpired},
	{ErrAlreadySubmitted, KindAlreadySubmitted},
	{ErrAlreadyCorrect, KindAlreadyCorrect},
	{ErrNoAttemptsRemaining, KindNoAttemptsRemaining},
	{ErrNoHintsAvailable, KindNoHintsAvailable},
	{ErrNotFound, KindNotFound},
	{ErrConcurrentUpdate, KindConflict},
	{ErrInvalidWindow, KindInvalid},
}

// KindOf classifies err, unwrapping as needed.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
