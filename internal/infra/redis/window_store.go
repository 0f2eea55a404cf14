package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/conflict"
)

const windowKey = "quiz:window"

// WindowStore keeps the competition window singleton under one key.
type WindowStore struct {
	client     *redis.Client
	maxRetries int
}

// NewWindowStore stores the competition window under a single Redis key.
func NewWindowStore(client *redis.Client, maxRetries int) *WindowStore {
	return &WindowStore{client: client, maxRetries: maxRetries}
}

func (s *WindowStore) Get(ctx context.Context) (domain.CompetitionWindow, error) {
	return loadWindow(ctx, s.client)
}

func (s *WindowStore) Update(ctx context.Context, fn func(*domain.CompetitionWindow) error) (domain.CompetitionWindow, error) {
	var out domain.CompetitionWindow
	err := conflict.Retry(ctx, s.maxRetries, func() error {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			working, err := loadWindow(ctx, tx)
			if err != nil {
				return err
			}
			if err := fn(&working); err != nil {
				return err
			}
			data, err := json.Marshal(working)
			if err != nil {
				return fmt.Errorf("encode window: %w", err)
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, windowKey, data, 0)
				return nil
			}); err != nil {
				return err
			}
			out = working
			return nil
		}, windowKey)
		if errors.Is(err, redis.TxFailedErr) {
			return domain.ErrConcurrentUpdate
		}
		return err
	})
	if err != nil {
		return domain.CompetitionWindow{}, err
	}
	return out, nil
}

func loadWindow(ctx context.Context, c getter) (domain.CompetitionWindow, error) {
	raw, err := c.Get(ctx, windowKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.DefaultWindow(), nil
	}
	if err != nil {
		return domain.CompetitionWindow{}, fmt.Errorf("load window: %w", err)
	}
	var w domain.CompetitionWindow
	if err := json.Unmarshal(raw, &w); err != nil {
		return domain.CompetitionWindow{}, fmt.Errorf("decode window: %w", err)
	}
	return w, nil
}
