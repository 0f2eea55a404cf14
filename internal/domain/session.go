package domain

import "time"

// SessionStatus only moves forward: NotStarted -> InProgress -> Submitted.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started"
	StatusInProgress SessionStatus = "in_progress"
	StatusSubmitted  SessionStatus = "submitted"
)

// SubmitReason records which path froze the session.
type SubmitReason string

const (
	SubmitVoluntary  SubmitReason = "voluntary"
	SubmitExpired    SubmitReason = "expired"
	SubmitViolations SubmitReason = "violations"
)

// AnswerRecord is the per-(team, question) ledger entry.
type AnswerRecord struct {
	QuestionID        string `json:"questionId" bson:"questionId"`
	AttemptsUsed      int    `json:"attemptsUsed" bson:"attemptsUsed"`
	IsCorrect         bool   `json:"isCorrect" bson:"isCorrect"`
	HintsUsed         int    `json:"hintsUsed" bson:"hintsUsed"`
	LastSubmittedText string `json:"lastSubmittedText,omitempty" bson:"lastSubmittedText,omitempty"`
	PointsAwarded     int    `json:"pointsAwarded" bson:"pointsAwarded"`
	HintPenalty       int    `json:"hintPenalty" bson:"hintPenalty"`
}

// Session is a team's quiz progress.
type Session struct {
	TeamID         string                   `json:"teamId" bson:"_id"`
	Status         SessionStatus            `json:"status" bson:"status"`
	Score          int                      `json:"score" bson:"score"`
	ViolationCount int                      `json:"violationCount" bson:"violationCount"`
	StartTime      *time.Time               `json:"startTime,omitempty" bson:"startTime,omitempty"`
	EndTime        *time.Time               `json:"endTime,omitempty" bson:"endTime,omitempty"`
	SubmitReason   SubmitReason             `json:"submitReason,omitempty" bson:"submitReason,omitempty"`
	Answers        map[string]*AnswerRecord `json:"answers" bson:"answers"`
	Version        int64                    `json:"version" bson:"version"`
	UpdatedAt      time.Time                `json:"updatedAt" bson:"updatedAt"`
}

// NewSession returns the implicit NotStarted record for a team.
func NewSession(teamID string) *Session {
	return &Session{
		TeamID:  teamID,
		Status:  StatusNotStarted,
		Answers: make(map[string]*AnswerRecord),
	}
}

// Clone returns a deep copy so adapters can hand out private working copies.
func (s *Session) Clone() *Session {
	out := *s
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	out.Answers = make(map[string]*AnswerRecord, len(s.Answers))
	for id, rec := range s.Answers {
		r := *rec
		out.Answers[id] = &r
	}
	return &out
}

// Frozen reports whether the session has reached its terminal state.
func (s *Session) Frozen() bool {
	return s.Status == StatusSubmitted
}

// Record returns the answer record for questionID, creating it when absent.
func (s *Session) Record(questionID string) *AnswerRecord {
	if s.Answers == nil {
		s.Answers = make(map[string]*AnswerRecord)
	}
	rec, ok := s.Answers[questionID]
	if !ok {
		rec = &AnswerRecord{QuestionID: questionID}
		s.Answers[questionID] = rec
	}
	return rec
}

// Freeze moves the session into Submitted.
func (s *Session) Freeze(at time.Time, reason SubmitReason) {
	end := at
	s.Status = StatusSubmitted
	s.EndTime = &end
	s.SubmitReason = reason
}

// Elapsed is the team's own time between start and submit.
func (s *Session) Elapsed() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}

// Solved counts correctly answered questions.
func (s *Session) Solved() int {
	n := 0
	for _, rec := range s.Answers {
		if rec.IsCorrect {
			n++
		}
	}
	return n
}

// Result projects the session into the admin results view.
func (s *Session) Result() TeamResult {
	return TeamResult{
		TeamID:         s.TeamID,
		Status:         s.Status,
		Score:          s.Score,
		ViolationCount: s.ViolationCount,
		Solved:         s.Solved(),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		SubmitReason:   s.SubmitReason,
	}
}

// QuestionState is the hydrated per-question progress returned on start.
type QuestionState struct {
	AttemptsUsed  int      `json:"attemptsUsed"`
	IsCorrect     bool     `json:"isCorrect"`
	IsLocked      bool     `json:"isLocked"`
	HintsUsed     int      `json:"hintsUsed"`
	RevealedHints []string `json:"revealedHints,omitempty"`
}

// HydrateRecord builds the client view of one record. q may be nil for a question
// that has since been removed from the catalog.
func HydrateRecord(rec *AnswerRecord, q *Question) QuestionState {
	limit := 1
	if q != nil {
		limit = q.AttemptLimit()
	}
	state := QuestionState{
		AttemptsUsed: rec.AttemptsUsed,
		IsCorrect:    rec.IsCorrect,
		IsLocked:     rec.IsCorrect || rec.AttemptsUsed >= limit,
		HintsUsed:    rec.HintsUsed,
	}
	if q != nil {
		for i := 0; i < rec.HintsUsed && i < len(q.Hints); i++ {
			state.RevealedHints = append(state.RevealedHints, q.Hints[i])
		}
	}
	return state
}
