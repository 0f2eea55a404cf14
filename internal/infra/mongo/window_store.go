package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/conflict"
)

const (
	settingsCollection = "settings"
	windowDocID        = "competition_window"
)

type windowDoc struct {
	ID                       string `bson:"_id"`
	domain.CompetitionWindow `bson:",inline"`
}

// WindowStore keeps the competition window as a single settings document.
type WindowStore struct {
	coll       *mongo.Collection
	maxRetries int
}

// NewWindowStore keeps the competition window in the settings collection.
func NewWindowStore(db *mongo.Database, maxRetries int) *WindowStore {
	return &WindowStore{coll: db.Collection(settingsCollection), maxRetries: maxRetries}
}

func (s *WindowStore) Get(ctx context.Context) (domain.CompetitionWindow, error) {
	w, _, err := s.load(ctx)
	return w, err
}

func (s *WindowStore) Update(ctx context.Context, fn func(*domain.CompetitionWindow) error) (domain.CompetitionWindow, error) {
	var out domain.CompetitionWindow
	err := conflict.Retry(ctx, s.maxRetries, func() error {
		working, exists, err := s.load(ctx)
		if err != nil {
			return err
		}
		prev := working.Version
		if err := fn(&working); err != nil {
			return err
		}
		working.Version = prev + 1

		doc := windowDoc{ID: windowDocID, CompetitionWindow: working}
		if exists {
			res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": windowDocID, "version": prev}, doc)
			if err != nil {
				return fmt.Errorf("replace window: %w", err)
			}
			if res.MatchedCount == 0 {
				return domain.ErrConcurrentUpdate
			}
		} else {
			if _, err := s.coll.InsertOne(ctx, doc); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return domain.ErrConcurrentUpdate
				}
				return fmt.Errorf("insert window: %w", err)
			}
		}
		out = working
		return nil
	})
	if err != nil {
		return domain.CompetitionWindow{}, err
	}
	return out, nil
}

func (s *WindowStore) load(ctx context.Context) (domain.CompetitionWindow, bool, error) {
	var doc windowDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": windowDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.DefaultWindow(), false, nil
	}
	if err != nil {
		return domain.CompetitionWindow{}, false, fmt.Errorf("load window: %w", err)
	}
	return doc.CompetitionWindow, true, nil
}
