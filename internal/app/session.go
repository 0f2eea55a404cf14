package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// StartResult is everything a team client needs to render and resume the quiz.
type StartResult struct {
	Questions        []domain.QuestionView           `json:"questions"`
	RemainingSeconds int                             `json:"remainingSeconds"`
	DurationMinutes  int                             `json:"duration"`
	WindowStart      *time.Time                      `json:"startTime,omitempty"`
	Status           domain.SessionStatus            `json:"status"`
	Score            int                             `json:"score"`
	State            map[string]domain.QuestionState `json:"userState"`
}

// SubmitResult reports the frozen score.
type SubmitResult struct {
	Score   int       `json:"score"`
	EndTime time.Time `json:"endTime"`
}

// Start opens (or resumes) a team's session while the competition is live.
func (s *QuizService) Start(ctx context.Context, teamID string) (StartResult, error) {
	window, err := s.windows.Get(ctx)
	if err != nil {
		return StartResult{}, err
	}
	if !window.IsLive {
		return StartResult{}, domain.ErrQuizNotLive
	}

	questions, err := s.catalog.ListQuestions(ctx)
	if err != nil {
		return StartResult{}, err
	}

	var started bool
	session, err := s.sessions.Update(ctx, teamID, func(sess *domain.Session) error {
		started = false
		if sess.Frozen() {
			return domain.ErrAlreadySubmitted
		}
		if sess.Status != domain.StatusNotStarted {
			return errUnchanged
		}
		now := s.clock.Now()
		sess.Status = domain.StatusInProgress
		sess.StartTime = &now
		started = true
		return nil
	})
	if errors.Is(err, errUnchanged) {
		session, err = s.sessions.Get(ctx, teamID)
	}
	if err != nil {
		return StartResult{}, err
	}

	if started {
		log.Info().Str("team_id", teamID).Msg("session started")
		s.emit(ctx, domain.EventSessionStarted, teamID, map[string]any{"startTime": session.StartTime})
	}

	byID := make(map[string]*domain.Question, len(questions))
	views := make([]domain.QuestionView, 0, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
		views = append(views, questions[i].View())
	}
	rand.Shuffle(len(views), func(i, j int) { views[i], views[j] = views[j], views[i] })

	state := make(map[string]domain.QuestionState, len(session.Answers))
	for id, rec := range session.Answers {
		state[id] = domain.HydrateRecord(rec, byID[id])
	}

	return StartResult{
		Questions:        views,
		RemainingSeconds: window.RemainingSeconds(s.clock.Now()),
		DurationMinutes:  window.DurationMinutes,
		WindowStart:      window.StartTime,
		Status:           session.Status,
		Score:            session.Score,
		State:            state,
	}, nil
}

// Submit voluntarily freezes the team's session.
func (s *QuizService) Submit(ctx context.Context, teamID string) (SubmitResult, error) {
	session, err := s.sessions.Update(ctx, teamID, func(sess *domain.Session) error {
		if err := requireActive(sess); err != nil {
			return err
		}
		sess.Freeze(s.clock.Now(), domain.SubmitVoluntary)
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	s.afterSubmit(ctx, session)
	return SubmitResult{Score: session.Score, EndTime: *session.EndTime}, nil
}

// afterSubmit runs the side effects shared by every path into Submitted.
func (s *QuizService) afterSubmit(ctx context.Context, session domain.Session) {
	log.Info().
		Str("team_id", session.TeamID).
		Int("score", session.Score).
		Str("reason", string(session.SubmitReason)).
		Msg("session submitted")
	s.emit(ctx, domain.EventSessionSubmitted, session.TeamID, map[string]any{
		"score":  session.Score,
		"reason": session.SubmitReason,
	})
	s.refreshLeaderboard(ctx)
}
