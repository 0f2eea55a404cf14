package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"team-quiz-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Each team has its own lock, so updates for one team are serialized while
// different teams proceed in parallel.
type SessionStore struct {
	clock   func() time.Time
	mu      sync.RWMutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		clock:   time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// Update holds the team lock while fn runs on a copy; the copy replaces the stored session only when fn succeeds.
func (s *SessionStore) Update(_ context.Context, teamID string, fn func(*domain.Session) error) (domain.Session, error) {
	entry := s.entry(teamID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	working := domain.NewSession(teamID)
	if entry.session != nil {
		working = entry.session.Clone()
	}
	if err := fn(working); err != nil {
		return domain.Session{}, err
	}
	working.Version++
	working.UpdatedAt = s.clock()
	entry.session = working
	return *working.Clone(), nil
}

func (s *SessionStore) Get(_ context.Context, teamID string) (domain.Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[teamID]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.session == nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *entry.session.Clone(), nil
}

func (s *SessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	sessions := make([]domain.Session, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if entry.session != nil {
			sessions = append(sessions, *entry.session.Clone())
		}
		entry.mu.Unlock()
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].TeamID < sessions[j].TeamID })
	return sessions, nil
}

func (s *SessionStore) entry(teamID string) *sessionEntry {
	s.mu.RLock()
	entry, ok := s.entries[teamID]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[teamID]; ok {
		return entry
	}
	entry = &sessionEntry{}
	s.entries[teamID] = entry
	return entry
}
