package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"team-quiz-service/internal/domain"
)

// QuestionLoader fetches the question set from a backing store (e.g., document DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// Catalog caches questions in Redis (one hash for the whole set) and falls back to a loader on cache miss.
// Questions are stored as: HSET quiz:catalog:questions {questionID} {question JSON}
type Catalog struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

// NewCatalog caches questions from loader in Redis for ttl.
func NewCatalog(client *redis.Client, loader QuestionLoader, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	cached, err := c.client.HGetAll(ctx, catalogKey).Result()
	if err == nil && len(cached) > 0 {
		return decodeQuestions(cached)
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.HGetAll(ctx, catalogKey).Result()
		if err == nil && len(cached) > 0 {
			return decodeQuestions(cached)
		}

		questions, err := c.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.Pipeline()
		for _, q := range questions {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, catalogKey, q.ID, data)
		}
		if ttl > 0 {
			pipe.Expire(ctx, catalogKey, ttl)
		}
		// a failed fill only costs another load on the next call
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	questions := result.([]domain.Question)
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out, nil
}

func (c *Catalog) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	raw, err := c.client.HGet(ctx, catalogKey, questionID).Bytes()
	if err == nil {
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return domain.Question{}, fmt.Errorf("decode question %s: %w", questionID, err)
		}
		return q, nil
	}
	if !errors.Is(err, redis.Nil) {
		return domain.Question{}, err
	}

	questions, err := c.ListQuestions(ctx)
	if err != nil {
		return domain.Question{}, err
	}
	for _, q := range questions {
		if q.ID == questionID {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// Invalidate drops the cached set, e.g. after a re-seed.
func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogKey).Err()
}

const catalogKey = "quiz:catalog:questions"

func decodeQuestions(cached map[string]string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(cached))
	for id, raw := range cached {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("decode question %s: %w", id, err)
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
