package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storesync/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type LogStore struct {
	db   *bun.DB
	repo repository.Repository[*scriptRunLogRecord]
}

func NewLogStore(db *bun.DB) (*LogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*scriptRunLogRecord](db, scriptRunLogHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid run log repository wiring: %w", err)
		}
	}
	return &LogStore{db: db, repo: repo}, nil
}

func (s *LogStore) Append(ctx context.Context, entry core.LogEntry) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: log store is not configured")
	}
	if !entry.RunID.Valid() {
		return core.BadInput("log entry requires a positive run id", map[string]any{"run_id": int64(entry.RunID)})
	}
	if !entry.Level.Valid() {
		return core.BadInput("log entry level is invalid", map[string]any{"level": string(entry.Level)})
	}
	record := newScriptRunLogRecord(entry)
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// ListByRun pages through one run's entries oldest first.
func (s *LogStore) ListByRun(ctx context.Context, runID core.RunID, page int, perPage int) (core.LogPage, error) {
	if s == nil || s.repo == nil {
		return core.LogPage{}, fmt.Errorf("sqlstore: log store is not configured")
	}
	page, perPage = core.NormalizePage(page, perPage)
	offset := (page - 1) * perPage

	records, total, err := s.repo.List(ctx,
		repository.SelectBy("run_id", "=", strconv.FormatInt(int64(runID), 10)),
		repository.OrderBy("logged_at ASC"),
		repository.OrderBy("id ASC"),
		repository.SelectPaginate(perPage, offset),
	)
	if err != nil {
		return core.LogPage{}, err
	}
	items := make([]core.LogEntry, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		items = append(items, record.toDomain())
	}
	return core.LogPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// CountByLevel reports how many entries of the given level a run has.
func (s *LogStore) CountByLevel(ctx context.Context, runID core.RunID, level core.Level) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: log store is not configured")
	}
	return s.db.NewSelect().
		Model((*scriptRunLogRecord)(nil)).
		Where("run_id = ?", int64(runID)).
		Where("level = ?", strings.ToUpper(strings.TrimSpace(string(level)))).
		Count(ctx)
}
