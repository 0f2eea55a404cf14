package domain

import (
	"strings"
	"time"
)

// Difficulty tiers drive points, hint allowance and hint pricing.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// PointValue is awarded once for a correct answer.
func (d Difficulty) PointValue() int {
	switch d {
	case DifficultyEasy:
		return 25
	case DifficultyHard:
		return 100
	default:
		return 50
	}
}

// MaxHints is the number of hints a team may reveal for a question of this tier.
func (d Difficulty) MaxHints() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

// HintCost is the deduction for the i-th revealed hint (0-indexed): 5, 10, 15.
func HintCost(index int) int {
	return 5 * (index + 1)
}

// NormalizeAnswer trims and case-folds an answer for exact comparison.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Link is a reference attached to a question.
type Link struct {
	Label string `json:"label" yaml:"label" bson:"label"`
	URL   string `json:"url" yaml:"url" bson:"url"`
}

// Question is a catalog entry. CorrectAnswer never leaves the engine.
type Question struct {
	ID            string     `json:"id" yaml:"id" bson:"_id"`
	Text          string     `json:"text" yaml:"text" bson:"text"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty" bson:"difficulty"`
	Category      string     `json:"category,omitempty" yaml:"category" bson:"category"`
	Links         []Link     `json:"links,omitempty" yaml:"links" bson:"links"`
	CorrectAnswer string     `json:"correctAnswer" yaml:"correctAnswer" bson:"correctAnswer"`
	MaxAttempts   int        `json:"maxAttempts" yaml:"maxAttempts" bson:"maxAttempts"` // defaults to 1 if zero
	Hints         []string   `json:"hints,omitempty" yaml:"hints" bson:"hints"`
}

// Tier returns the question difficulty, defaulting to Medium.
func (q Question) Tier() Difficulty {
	if q.Difficulty.Valid() {
		return q.Difficulty
	}
	return DifficultyMedium
}

// AttemptLimit returns MaxAttempts with the default applied.
func (q Question) AttemptLimit() int {
	if q.MaxAttempts < 1 {
		return 1
	}
	return q.MaxAttempts
}

// HintLimit is the number of hints actually revealable: the tier allowance capped by the hints defined.
func (q Question) HintLimit() int {
	limit := q.Tier().MaxHints()
	if len(q.Hints) < limit {
		return len(q.Hints)
	}
	return limit
}

// QuestionView is the team-facing projection of a question.
type QuestionView struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Difficulty  Difficulty `json:"difficulty"`
	Category    string     `json:"category,omitempty"`
	Links       []Link     `json:"links,omitempty"`
	Marks       int        `json:"marks"`
	MaxAttempts int        `json:"maxAttempts"`
	HintCount   int        `json:"hintCount"`
}

// View strips the answer and hint texts.
func (q Question) View() QuestionView {
	category := q.Category
	if category == "" {
		category = "General"
	}
	return QuestionView{
		ID:          q.ID,
		Text:        q.Text,
		Difficulty:  q.Tier(),
		Category:    category,
		Links:       q.Links,
		Marks:       q.Tier().PointValue(),
		MaxAttempts: q.AttemptLimit(),
		HintCount:   q.HintLimit(),
	}
}

// Ranking is one row of the leaderboard.
type Ranking struct {
	Rank     int           `json:"rank"`
	TeamID   string        `json:"teamId"`
	Score    int           `json:"score"`
	Duration time.Duration `json:"duration"`
	EndTime  *time.Time    `json:"endTime,omitempty"`
}

// Leaderboard captures the ordered rankings at a point in time.
type Leaderboard struct {
	Entries   []Ranking `json:"entries"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TeamResult is the admin view of a team's progress.
type TeamResult struct {
	TeamID         string        `json:"teamId"`
	Status         SessionStatus `json:"status"`
	Score          int           `json:"score"`
	ViolationCount int           `json:"violationCount"`
	Solved         int           `json:"solved"`
	StartTime      *time.Time    `json:"startTime,omitempty"`
	EndTime        *time.Time    `json:"endTime,omitempty"`
	SubmitReason   SubmitReason  `json:"submitReason,omitempty"`
}
