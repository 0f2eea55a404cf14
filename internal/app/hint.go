package app

import (
	"context"

	"team-quiz-service/internal/domain"
)

// HintResult is returned when a hint is revealed.
type HintResult struct {
	QuestionID string `json:"questionId"`
	HintIndex  int    `json:"hintIndex"`
	HintText   string `json:"hintText"`
	Cost       int    `json:"cost"`
	NewScore   int    `json:"newScore"`
	HintsUsed  int    `json:"hintsUsed"`
}

// RevealHint sells the next hint of a question. Hints are strictly sequential and
// the deduction is not floored, so a team's score may go negative.
func (s *QuizService) RevealHint(ctx context.Context, teamID, questionID string, hintIndex int) (HintResult, error) {
	question, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return HintResult{}, err
	}
	window, err := s.windows.Get(ctx)
	if err != nil {
		return HintResult{}, err
	}

	var result HintResult
	session, err := s.sessions.Update(ctx, teamID, func(sess *domain.Session) error {
		if err := requireActive(sess); err != nil {
			return err
		}
		if err := window.CheckOpen(s.clock.Now()); err != nil {
			return err
		}
		rec := sess.Record(question.ID)
		if rec.IsCorrect || hintIndex != rec.HintsUsed || rec.HintsUsed >= question.HintLimit() {
			return domain.ErrNoHintsAvailable
		}
		cost := domain.HintCost(hintIndex)
		sess.Score -= cost
		rec.HintsUsed++
		rec.HintPenalty += cost
		result = HintResult{
			QuestionID: question.ID,
			HintIndex:  hintIndex,
			HintText:   question.Hints[hintIndex],
			Cost:       cost,
			HintsUsed:  rec.HintsUsed,
		}
		return nil
	})
	if err != nil {
		return HintResult{}, err
	}
	result.NewScore = session.Score

	s.emit(ctx, domain.EventHintRevealed, teamID, map[string]any{
		"questionId": question.ID,
		"hintIndex":  hintIndex,
		"cost":       result.Cost,
	})
	return result, nil
}
