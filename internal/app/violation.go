package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// ViolationAction tells the client what to do after a violation.
type ViolationAction string

const (
	ActionWarning   ViolationAction = "warning"
	ActionTerminate ViolationAction = "terminate"
)

// ViolationResult is the outcome of one anti-cheat signal.
type ViolationResult struct {
	Action  ViolationAction `json:"action"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
}

// RecordViolation counts an anti-cheat signal and force-submits the session once
// the threshold is reached. A frozen session answers Terminate without writing.
func (s *QuizService) RecordViolation(ctx context.Context, teamID string) (ViolationResult, error) {
	var result ViolationResult
	session, err := s.sessions.Update(ctx, teamID, func(sess *domain.Session) error {
		switch sess.Status {
		case domain.StatusNotStarted:
			return domain.ErrSessionNotFound
		case domain.StatusSubmitted:
			result = ViolationResult{Action: ActionTerminate, Count: sess.ViolationCount, Message: "Already submitted"}
			return errUnchanged
		}
		sess.ViolationCount++
		if sess.ViolationCount >= s.violationThreshold {
			sess.Freeze(s.clock.Now(), domain.SubmitViolations)
			result = ViolationResult{Action: ActionTerminate, Count: sess.ViolationCount, Message: "Disqualified"}
			return nil
		}
		result = ViolationResult{Action: ActionWarning, Count: sess.ViolationCount, Message: "Violation recorded"}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return result, nil
	}
	if err != nil {
		return ViolationResult{}, err
	}

	log.Warn().Str("team_id", teamID).Int("count", result.Count).Str("action", string(result.Action)).Msg("violation recorded")
	s.emit(ctx, domain.EventViolationRecorded, teamID, map[string]any{
		"count":  result.Count,
		"action": result.Action,
	})
	if session.Frozen() {
		s.afterSubmit(ctx, session)
	}
	return result, nil
}
