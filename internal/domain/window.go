package domain

import "time"

// DefaultDurationMinutes matches the initial settings of a fresh competition.
const DefaultDurationMinutes = 30

// CompetitionWindow is the single timing record shared by all teams.
// StartTime is set exactly while IsLive is true.
type CompetitionWindow struct {
	IsLive          bool       `json:"isLive" bson:"isLive"`
	DurationMinutes int        `json:"duration" bson:"durationMinutes"`
	StartTime       *time.Time `json:"startTime,omitempty" bson:"startTime,omitempty"`
	Version         int64      `json:"version" bson:"version"`
}

// DefaultWindow is what a store returns before any admin write.
func DefaultWindow() CompetitionWindow {
	return CompetitionWindow{DurationMinutes: DefaultDurationMinutes}
}

// Duration returns the window length.
func (w CompetitionWindow) Duration() time.Duration {
	return time.Duration(w.DurationMinutes) * time.Minute
}

// Deadline returns StartTime+Duration, or the zero time when not live.
func (w CompetitionWindow) Deadline() time.Time {
	if !w.IsLive || w.StartTime == nil {
		return time.Time{}
	}
	return w.StartTime.Add(w.Duration())
}

// Expired reports whether now is past the deadline of a live window.
func (w CompetitionWindow) Expired(now time.Time) bool {
	if !w.IsLive || w.StartTime == nil {
		return false
	}
	return now.After(w.Deadline())
}

// RemainingSeconds is the advisory countdown shown to clients, floored at zero.
func (w CompetitionWindow) RemainingSeconds(now time.Time) int {
	if !w.IsLive || w.StartTime == nil {
		return 0
	}
	left := w.Deadline().Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// CheckOpen returns nil when answers may be accepted at now.
func (w CompetitionWindow) CheckOpen(now time.Time) error {
	if !w.IsLive {
		return ErrQuizNotLive
	}
	if w.Expired(now) {
		return ErrQuizExpired
	}
	return nil
}

// WindowUpdate carries an admin change; nil fields are left untouched.
type WindowUpdate struct {
	IsLive          *bool `json:"isLive,omitempty"`
	DurationMinutes *int  `json:"duration,omitempty"`
}

// Apply mutates w according to u, stamping or clearing StartTime on live transitions.
func (w *CompetitionWindow) Apply(u WindowUpdate, now time.Time) error {
	if u.DurationMinutes != nil {
		if *u.DurationMinutes < 1 {
			return ErrInvalidWindow
		}
		w.DurationMinutes = *u.DurationMinutes
	}
	if u.IsLive != nil {
		switch {
		case *u.IsLive && !w.IsLive:
			start := now
			w.StartTime = &start
		case !*u.IsLive:
			w.StartTime = nil
		}
		w.IsLive = *u.IsLive
	}
	if w.IsLive && w.StartTime == nil {
		start := now
		w.StartTime = &start
	}
	w.Version++
	return nil
}
