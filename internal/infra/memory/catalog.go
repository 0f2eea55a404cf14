package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"team-quiz-service/internal/domain"
)

// QuestionLoader fetches the question set from a backing store (e.g., document DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Catalog caches the question set with TTL to avoid repeated DB hits.
type Catalog struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu        sync.RWMutex
	questions []domain.Question
	byID      map[string]int
	expiresAt time.Time
}

// NewCatalog caches questions from loader for ttl.
func NewCatalog(loader QuestionLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := c.cached(); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do("questions", func() (interface{}, error) {
		if questions, ok := c.cached(); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		byID := make(map[string]int, len(questions))
		for i, q := range questions {
			byID[q.ID] = i
		}
		c.mu.Lock()
		c.questions = questions
		c.byID = byID
		c.expiresAt = c.clock().Add(c.ttlWithJitter())
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuestions(result.([]domain.Question)), nil
}

func (c *Catalog) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	if _, err := c.ListQuestions(ctx); err != nil {
		return domain.Question{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return c.questions[idx], nil
}

// Invalidate drops the cached set so the next read reloads it.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

func (c *Catalog) cached() ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.questions == nil || !c.expiresAt.After(c.clock()) {
		return nil, false
	}
	return copyQuestions(c.questions), true
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		// no TTL configured: keep the set for the life of the process
		return 100 * 365 * 24 * time.Hour
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	copy(out, in)
	return out
}

// StaticQuestionLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.Question
}

// NewStaticQuestionLoader serves a fixed question set.
func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return copyQuestions(l.questions), nil
}
