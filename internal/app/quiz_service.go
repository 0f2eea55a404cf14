package app

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"team-quiz-service/internal/domain"
)

// DefaultViolationThreshold is the violation count that force-submits a session.
const DefaultViolationThreshold = 4

// SessionRepository abstracts how team sessions are stored (in-memory, Redis, Postgres, Mongo).
type SessionRepository interface {
	// Update loads the team's session, or a fresh NotStarted one when absent, applies fn to a
	// private copy and persists it as one atomic read-modify-write. Nothing is written when fn
	// returns an error; that error is returned unchanged. fn may run more than once when the
	// adapter retries a conflicting write.
	Update(ctx context.Context, teamID string, fn func(*domain.Session) error) (domain.Session, error)
	// Get returns domain.ErrSessionNotFound for a team that never started.
	Get(ctx context.Context, teamID string) (domain.Session, error)
	List(ctx context.Context) ([]domain.Session, error)
}

// WindowRepository holds the competition window singleton.
type WindowRepository interface {
	// Get returns domain.DefaultWindow() before the first write.
	Get(ctx context.Context) (domain.CompetitionWindow, error)
	// Update applies fn atomically, with the same contract as SessionRepository.Update.
	Update(ctx context.Context, fn func(*domain.CompetitionWindow) error) (domain.CompetitionWindow, error)
}

// Catalog serves question definitions (from cache/backing store).
type Catalog interface {
	// GetQuestion returns domain.ErrQuestionNotFound for unknown IDs.
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}

// EventPublisher forwards engine events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// QuizService is the session and scoring engine.
type QuizService struct {
	sessions  SessionRepository
	windows   WindowRepository
	catalog   Catalog
	publisher EventPublisher
	clock     clockwork.Clock

	violationThreshold int

	board       *leaderboardHub
	windowWakes chan struct{}
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *QuizService) { s.clock = clock }
}

// WithPublisher sets where engine events go. Events are only logged by default.
func WithPublisher(p EventPublisher) Option {
	return func(s *QuizService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithViolationThreshold overrides DefaultViolationThreshold.
func WithViolationThreshold(n int) Option {
	return func(s *QuizService) {
		if n > 0 {
			s.violationThreshold = n
		}
	}
}

// NewQuizService builds the engine over the given stores; options override the clock, publisher and violation threshold.
func NewQuizService(sessions SessionRepository, windows WindowRepository, catalog Catalog, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:           sessions,
		windows:            windows,
		catalog:            catalog,
		publisher:          logPublisher{},
		clock:              clockwork.NewRealClock(),
		violationThreshold: DefaultViolationThreshold,
		windowWakes:        make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.board = newLeaderboardHub(s.clock.Now)
	return s
}

// errUnchanged aborts an update without writing while still reporting success to the caller.
var errUnchanged = errors.New("session unchanged")

// requireActive guards every mutation except Start.
func requireActive(sess *domain.Session) error {
	switch sess.Status {
	case domain.StatusNotStarted:
		return domain.ErrSessionNotFound
	case domain.StatusSubmitted:
		return domain.ErrAlreadySubmitted
	}
	return nil
}
