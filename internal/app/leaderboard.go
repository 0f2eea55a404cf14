package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"team-quiz-service/internal/domain"
)

// Rank orders submitted sessions by score descending, then by the team's own
// elapsed time ascending. Teams equal on both share a dense rank.
func Rank(sessions []domain.Session) []domain.Ranking {
	submitted := make([]domain.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.Status == domain.StatusSubmitted {
			submitted = append(submitted, sess)
		}
	}

	sort.SliceStable(submitted, func(i, j int) bool {
		a, b := submitted[i], submitted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Elapsed() != b.Elapsed() {
			return a.Elapsed() < b.Elapsed()
		}
		return a.TeamID < b.TeamID
	})

	rankings := make([]domain.Ranking, 0, len(submitted))
	rank := 0
	for i, sess := range submitted {
		if i == 0 || sess.Score != submitted[i-1].Score || sess.Elapsed() != submitted[i-1].Elapsed() {
			rank++
		}
		rankings = append(rankings, domain.Ranking{
			Rank:     rank,
			TeamID:   sess.TeamID,
			Score:    sess.Score,
			Duration: sess.Elapsed(),
			EndTime:  sess.EndTime,
		})
	}
	return rankings
}

// ListSubmittedRankings computes the leaderboard on demand. It may lag concurrent submits.
func (s *QuizService) ListSubmittedRankings(ctx context.Context) ([]domain.Ranking, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	return Rank(sessions), nil
}

// ListResults returns every team's progress, best score first and earliest finish
// breaking ties. Teams still playing sort after finished teams with the same score.
func (s *QuizService) ListResults(ctx context.Context) ([]domain.TeamResult, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]domain.TeamResult, 0, len(sessions))
	for i := range sessions {
		results = append(results, sessions[i].Result())
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.EndTime == nil && b.EndTime == nil:
		case a.EndTime == nil:
			return false
		case b.EndTime == nil:
			return true
		case !a.EndTime.Equal(*b.EndTime):
			return a.EndTime.Before(*b.EndTime)
		}
		return a.TeamID < b.TeamID
	})
	return results, nil
}

// SubscribeLeaderboard returns a channel that receives the rankings now and after
// every submit. The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) SubscribeLeaderboard(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	rankings, err := s.ListSubmittedRankings(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.board.subscribe(rankings)
	return ch, cancel, nil
}

func (s *QuizService) refreshLeaderboard(ctx context.Context) {
	if !s.board.active() {
		return
	}
	rankings, err := s.ListSubmittedRankings(ctx)
	if err != nil {
		log.Error().Err(err).Msg("refresh leaderboard failed")
		return
	}
	s.board.broadcast(rankings)
}

// leaderboardHub fans rankings out to live subscribers.
type leaderboardHub struct {
	now         func() time.Time
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func newLeaderboardHub(now func() time.Time) *leaderboardHub {
	return &leaderboardHub{
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

func (h *leaderboardHub) active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers) > 0
}

func (h *leaderboardHub) subscribe(initial []domain.Ranking) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	ch <- domain.Leaderboard{Entries: initial, UpdatedAt: h.now()}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *leaderboardHub) broadcast(rankings []domain.Ranking) {
	lb := domain.Leaderboard{Entries: rankings, UpdatedAt: h.now()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// slow consumer: replace its oldest snapshot with the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- lb:
			default:
			}
		}
	}
}
