package app

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// SweepExpired submits every in-progress session once the global window has
// expired. End times are clamped to the deadline, but never before the team's
// own start, so elapsed time is never negative.
func (s *QuizService) SweepExpired(ctx context.Context) (int, error) {
	window, err := s.windows.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !window.Expired(s.clock.Now()) {
		return 0, nil
	}
	deadline := window.Deadline()

	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return 0, err
	}

	var (
		swept int
		errs  []error
	)
	for _, candidate := range sessions {
		if candidate.Status != domain.StatusInProgress {
			continue
		}
		session, err := s.sessions.Update(ctx, candidate.TeamID, func(sess *domain.Session) error {
			if sess.Status != domain.StatusInProgress {
				return errUnchanged
			}
			end := s.clock.Now()
			if end.After(deadline) {
				end = deadline
			}
			if sess.StartTime != nil && end.Before(*sess.StartTime) {
				end = *sess.StartTime
			}
			sess.Freeze(end, domain.SubmitExpired)
			return nil
		})
		if errors.Is(err, errUnchanged) {
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("team_id", candidate.TeamID).Msg("auto-submit failed")
			errs = append(errs, err)
			continue
		}
		swept++
		s.afterSubmit(ctx, session)
	}
	if swept > 0 {
		log.Info().Int("sessions", swept).Time("deadline", deadline).Msg("expired sessions auto-submitted")
	}
	return swept, errors.Join(errs...)
}

// ExpiryWatcher runs SweepExpired when the competition deadline passes.
type ExpiryWatcher struct {
	service  *QuizService
	clock    clockwork.Clock
	interval time.Duration
}

// NewExpiryWatcher builds a watcher that re-checks the window at least every interval
// and immediately after any SetWindow call.
func NewExpiryWatcher(service *QuizService, interval time.Duration) *ExpiryWatcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExpiryWatcher{service: service, clock: service.clock, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *ExpiryWatcher) Run(ctx context.Context) error {
	for {
		wait := w.interval
		window, err := w.service.GetWindow(ctx)
		if err != nil {
			log.Error().Err(err).Msg("expiry watcher: load window")
		} else if window.IsLive {
			until := window.Deadline().Sub(w.clock.Now())
			if until < 0 {
				if _, err := w.service.SweepExpired(ctx); err != nil {
					log.Error().Err(err).Msg("expiry watcher: sweep")
				}
			} else if until < wait {
				// land just past the deadline, Expired is strict
				wait = until + time.Millisecond
			}
		}

		timer := w.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-w.service.windowWakes:
			timer.Stop()
		case <-timer.Chan():
		}
	}
}
