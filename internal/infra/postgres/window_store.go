package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"team-quiz-service/internal/domain"
	"team-quiz-service/internal/infra/conflict"
)

// the window is a single row pinned to this id
const windowRowID = 1

type windowRow struct {
	bun.BaseModel `bun:"table:competition_window"`

	ID              int        `bun:"id,pk"`
	IsLive          bool       `bun:"is_live,notnull"`
	DurationMinutes int        `bun:"duration_minutes,notnull"`
	StartTime       *time.Time `bun:"start_time"`
	Version         int64      `bun:"version,notnull"`
}

// WindowStore persists the competition window with the same optimistic scheme as SessionStore.
type WindowStore struct {
	db         *bun.DB
	maxRetries int
}

// NewWindowStore keeps the competition window in a single-row table.
func NewWindowStore(db *bun.DB, maxRetries int) *WindowStore {
	return &WindowStore{db: db, maxRetries: maxRetries}
}

func (s *WindowStore) Get(ctx context.Context) (domain.CompetitionWindow, error) {
	w, _, err := s.load(ctx)
	return w, err
}

func (s *WindowStore) Update(ctx context.Context, fn func(*domain.CompetitionWindow) error) (domain.CompetitionWindow, error) {
	var out domain.CompetitionWindow
	err := conflict.Retry(ctx, s.maxRetries, func() error {
		working, exists, err := s.load(ctx)
		if err != nil {
			return err
		}
		prev := working.Version
		if err := fn(&working); err != nil {
			return err
		}
		working.Version = prev + 1

		row := &windowRow{
			ID:              windowRowID,
			IsLive:          working.IsLive,
			DurationMinutes: working.DurationMinutes,
			StartTime:       working.StartTime,
			Version:         working.Version,
		}
		var res sql.Result
		if exists {
			res, err = s.db.NewUpdate().Model(row).WherePK().Where("version = ?", prev).Exec(ctx)
		} else {
			res, err = s.db.NewInsert().Model(row).On("CONFLICT (id) DO NOTHING").Exec(ctx)
		}
		if err != nil {
			return fmt.Errorf("save window: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return domain.ErrConcurrentUpdate
		}
		out = working
		return nil
	})
	if err != nil {
		return domain.CompetitionWindow{}, err
	}
	return out, nil
}

func (s *WindowStore) load(ctx context.Context) (domain.CompetitionWindow, bool, error) {
	row := new(windowRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", windowRowID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultWindow(), false, nil
	}
	if err != nil {
		return domain.CompetitionWindow{}, false, fmt.Errorf("load window: %w", err)
	}
	return domain.CompetitionWindow{
		IsLive:          row.IsLive,
		DurationMinutes: row.DurationMinutes,
		StartTime:       row.StartTime,
		Version:         row.Version,
	}, true, nil
}
