package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/conflict"
)

const sessionsCollection = "team_sessions"

// SessionStore keeps one document per team, keyed by team ID. Writes are
// guarded by the version field: ReplaceOne only matches the version that was
// read, and a duplicate _id on first insert means another writer got there first.
type SessionStore struct {
	coll       *mongo.Collection
	maxRetries int
	clock      func() time.Time
}

// NewSessionStore keeps sessions in the team_sessions collection, retrying version conflicts up to maxRetries times.
func NewSessionStore(db *mongo.Database, maxRetries int) *SessionStore {
	return &SessionStore{
		coll:       db.Collection(sessionsCollection),
		maxRetries: maxRetries,
		clock:      time.Now,
	}
}

// EnsureIndexes creates the status index used by the expiry sweep.
func (s *SessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})
	return err
}

func (s *SessionStore) Update(ctx context.Context, teamID string, fn func(*domain.Session) error) (domain.Session, error) {
	var out domain.Session
	err := conflict.Retry(ctx, s.maxRetries, func() error {
		working, exists, err := s.load(ctx, teamID)
		if err != nil {
			return err
		}
		prev := working.Version
		if err := fn(working); err != nil {
			return err
		}
		working.Version = prev + 1
		working.UpdatedAt = s.clock()

		if exists {
			res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": teamID, "version": prev}, working)
			if err != nil {
				return fmt.Errorf("replace session: %w", err)
			}
			if res.MatchedCount == 0 {
				return domain.ErrConcurrentUpdate
			}
		} else {
			if _, err := s.coll.InsertOne(ctx, working); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					return domain.ErrConcurrentUpdate
				}
				return fmt.Errorf("insert session: %w", err)
			}
		}
		out = *working
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (s *SessionStore) Get(ctx context.Context, teamID string) (domain.Session, error) {
	session, exists, err := s.load(ctx, teamID)
	if err != nil {
		return domain.Session{}, err
	}
	if !exists {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *session, nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var sessions []domain.Session
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	for i := range sessions {
		normalizeSession(&sessions[i])
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

func (s *SessionStore) load(ctx context.Context, teamID string) (*domain.Session, bool, error) {
	var session domain.Session
	err := s.coll.FindOne(ctx, bson.M{"_id": teamID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.NewSession(teamID), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	normalizeSession(&session)
	return &session, true, nil
}

func normalizeSession(s *domain.Session) {
	if s.Answers == nil {
		s.Answers = make(map[string]*domain.AnswerRecord)
	}
}
