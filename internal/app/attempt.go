package app

import (
	"context"

	"team-quiz-service/internal/domain"
)

// AttemptResult summarizes the outcome of one answer submission.
type AttemptResult struct {
	QuestionID   string `json:"questionId"`
	Correct      bool   `json:"correct"`
	AttemptsLeft int    `json:"attemptsLeft"`
	Awarded      int    `json:"awarded"`
	Score        int    `json:"score"`
	Message      string `json:"message"`
}

// Attempt grades an answer. Points for a question are credited at most once.
func (s *QuizService) Attempt(ctx context.Context, teamID, questionID, answer string) (AttemptResult, error) {
	question, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return AttemptResult{}, err
	}
	window, err := s.windows.Get(ctx)
	if err != nil {
		return AttemptResult{}, err
	}

	var result AttemptResult
	session, err := s.sessions.Update(ctx, teamID, func(sess *domain.Session) error {
		if err := requireActive(sess); err != nil {
			return err
		}
		if err := window.CheckOpen(s.clock.Now()); err != nil {
			return err
		}
		var err error
		result, err = gradeAttempt(sess, question, answer)
		return err
	})
	if err != nil {
		return AttemptResult{}, err
	}
	result.Score = session.Score

	s.emit(ctx, domain.EventAnswerGraded, teamID, map[string]any{
		"questionId":   question.ID,
		"correct":      result.Correct,
		"awarded":      result.Awarded,
		"attemptsLeft": result.AttemptsLeft,
	})
	return result, nil
}

// gradeAttempt applies one attempt to sess and leaves it untouched on rejection.
func gradeAttempt(sess *domain.Session, q domain.Question, answer string) (AttemptResult, error) {
	rec := sess.Record(q.ID)
	limit := q.AttemptLimit()

	if rec.IsCorrect {
		return AttemptResult{}, domain.ErrAlreadyCorrect
	}
	if rec.AttemptsUsed >= limit {
		return AttemptResult{}, domain.ErrNoAttemptsRemaining
	}

	rec.AttemptsUsed++
	rec.LastSubmittedText = answer
	result := AttemptResult{
		QuestionID:   q.ID,
		AttemptsLeft: limit - rec.AttemptsUsed,
		Message:      "Incorrect answer.",
	}

	if domain.NormalizeAnswer(answer) == domain.NormalizeAnswer(q.CorrectAnswer) {
		points := q.Tier().PointValue()
		rec.IsCorrect = true
		rec.PointsAwarded = points
		sess.Score += points
		result.Correct = true
		result.Awarded = points
		result.Message = "Correct!"
	}
	return result, nil
}
