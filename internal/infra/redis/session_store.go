package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/conflict"
)

// SessionStore keeps one JSON document per team in Redis.
// Keys:
//
//	quiz:team:{teamID}:session  session document
//	quiz:teams                  set of team IDs that have a session
//
// Updates run inside WATCH/MULTI on the session key; a concurrent write aborts
// the transaction and the whole read-modify-write is retried.
type SessionStore struct {
	client     *redis.Client
	maxRetries int
	clock      func() time.Time
}

// NewSessionStore keeps sessions in Redis, retrying conflicting transactions up to maxRetries times.
func NewSessionStore(client *redis.Client, maxRetries int) *SessionStore {
	return &SessionStore{
		client:     client,
		maxRetries: maxRetries,
		clock:      time.Now,
	}
}

// Update runs fn inside WATCH/MULTI; a concurrent write to the same team aborts the transaction and the whole update is retried.
func (s *SessionStore) Update(ctx context.Context, teamID string, fn func(*domain.Session) error) (domain.Session, error) {
	key := sessionKey(teamID)
	var out domain.Session

	err := conflict.Retry(ctx, s.maxRetries, func() error {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			working, err := loadSession(ctx, tx, key)
			if errors.Is(err, redis.Nil) {
				working = domain.NewSession(teamID)
			} else if err != nil {
				return err
			}

			if err := fn(working); err != nil {
				return err
			}
			working.Version++
			working.UpdatedAt = s.clock()

			data, err := json.Marshal(working)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				pipe.SAdd(ctx, teamsKey, teamID)
				return nil
			})
			if err != nil {
				return err
			}
			out = *working
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			return domain.ErrConcurrentUpdate
		}
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (s *SessionStore) Get(ctx context.Context, teamID string) (domain.Session, error) {
	session, err := loadSession(ctx, s.client, sessionKey(teamID))
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	return *session, nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	teamIDs, err := s.client.SMembers(ctx, teamsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	if len(teamIDs) == 0 {
		return []domain.Session{}, nil
	}
	sort.Strings(teamIDs)

	keys := make([]string, len(teamIDs))
	for i, id := range teamIDs {
		keys[i] = sessionKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var session domain.Session
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", teamIDs[i], err)
		}
		normalizeSession(&session)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

const teamsKey = "quiz:teams"

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func sessionKey(teamID string) string {
	return "quiz:team:" + teamID + ":session"
}

func loadSession(ctx context.Context, c getter, key string) (*domain.Session, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	normalizeSession(&session)
	return &session, nil
}

func normalizeSession(s *domain.Session) {
	if s.Answers == nil {
		s.Answers = make(map[string]*domain.AnswerRecord)
	}
}
