package domain

import "time"

// EventType names a session transition published to downstream consumers.
type EventType string

const (
	EventSessionStarted    EventType = "session.started"
	EventAnswerGraded      EventType = "answer.graded"
	EventHintRevealed      EventType = "hint.revealed"
	EventViolationRecorded EventType = "violation.recorded"
	EventSessionSubmitted  EventType = "session.submitted"
	EventWindowChanged     EventType = "window.changed"
)

// Event is an immutable record of something the engine did.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	TeamID     string         `json:"teamId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Data       map[string]any `json:"data,omitempty"`
}
