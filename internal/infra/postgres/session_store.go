package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/conflict"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:team_sessions"`

	TeamID    string          `bun:"team_id,pk"`
	Status    string          `bun:"status,notnull"`
	Score     int             `bun:"score,notnull"`
	Version   int64           `bun:"version,notnull"`
	Data      json.RawMessage `bun:"data,type:jsonb,notnull"`
	UpdatedAt time.Time       `bun:"updated_at,notnull"`
}

// SessionStore persists sessions in Postgres with optimistic versioning:
// the first write inserts (ON CONFLICT DO NOTHING), later writes update
// WHERE version matches what was read. Zero affected rows means another
// writer won and the update is retried.
type SessionStore struct {
	db         *bun.DB
	maxRetries int
	clock      func() time.Time
}

// NewSessionStore keeps sessions in Postgres, retrying version conflicts up to maxRetries times.
func NewSessionStore(db *bun.DB, maxRetries int) *SessionStore {
	return &SessionStore{db: db, maxRetries: maxRetries, clock: time.Now}
}

// Update writes only if the row still carries the version fn was applied to.
func (s *SessionStore) Update(ctx context.Context, teamID string, fn func(*domain.Session) error) (domain.Session, error) {
	var out domain.Session
	err := conflict.Retry(ctx, s.maxRetries, func() error {
		working, exists, err := s.load(ctx, teamID)
		if err != nil {
			return err
		}
		prev := working.Version
		if err := fn(working); err != nil {
			return err
		}
		working.Version = prev + 1
		working.UpdatedAt = s.clock()

		row, err := toSessionRow(working)
		if err != nil {
			return err
		}

		var res sql.Result
		if exists {
			res, err = s.db.NewUpdate().Model(row).WherePK().Where("version = ?", prev).Exec(ctx)
		} else {
			res, err = s.db.NewInsert().Model(row).On("CONFLICT (team_id) DO NOTHING").Exec(ctx)
		}
		if err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrConcurrentUpdate
		}
		out = *working
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return out, nil
}

func (s *SessionStore) Get(ctx context.Context, teamID string) (domain.Session, error) {
	session, exists, err := s.load(ctx, teamID)
	if err != nil {
		return domain.Session{}, err
	}
	if !exists {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *session, nil
}

func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	var rows []sessionRow
	if err := s.db.NewSelect().Model(&rows).Order("team_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	sessions := make([]domain.Session, 0, len(rows))
	for i := range rows {
		session, err := fromSessionRow(&rows[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

func (s *SessionStore) load(ctx context.Context, teamID string) (*domain.Session, bool, error) {
	row := new(sessionRow)
	err := s.db.NewSelect().Model(row).Where("team_id = ?", teamID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSession(teamID), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}
	session, err := fromSessionRow(row)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func toSessionRow(s *domain.Session) (*sessionRow, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return &sessionRow{
		TeamID:    s.TeamID,
		Status:    string(s.Status),
		Score:     s.Score,
		Version:   s.Version,
		Data:      data,
		UpdatedAt: s.UpdatedAt,
	}, nil
}

func fromSessionRow(row *sessionRow) (*domain.Session, error) {
	var session domain.Session
	if err := json.Unmarshal(row.Data, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", row.TeamID, err)
	}
	if session.Answers == nil {
		session.Answers = make(map[string]*domain.AnswerRecord)
	}
	session.Version = row.Version
	return &session, nil
}
