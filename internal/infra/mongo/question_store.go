package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"team-quiz-service/internal/domain"
)

const questionsCollection = "questions"

// QuestionStore loads and seeds the question set in Mongo.
type QuestionStore struct {
	coll *mongo.Collection
}

// NewQuestionStore reads and seeds the questions collection.
func NewQuestionStore(db *mongo.Database) *QuestionStore {
	return &QuestionStore{coll: db.Collection(questionsCollection)}
}

func (s *QuestionStore) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	var questions []domain.Question
	if err := cursor.All(ctx, &questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return questions, nil
}

// SaveQuestions upserts questions by ID.
func (s *QuestionStore) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(questions))
	for _, q := range questions {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": q.ID}).
			SetReplacement(q).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("save questions: %w", err)
	}
	return nil
}
