package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-storesync/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordStore emulates a streaming-insert analytical store on top of SQL:
// every inserted row carries a buffered_until deadline and refuses updates
// until the deadline passes.
type RecordStore struct {
	db     *bun.DB
	repo   repository.Repository[*syncRecord]
	window time.Duration
	now    core.Clock
}

type RecordStoreOption func(*RecordStore)

func WithRecordClock(now func() time.Time) RecordStoreOption {
	return func(s *RecordStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewRecordStore(db *bun.DB, window time.Duration, opts ...RecordStoreOption) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if window < 0 {
		return nil, fmt.Errorf("sqlstore: buffer window must not be negative")
	}
	repo := repository.NewRepository[*syncRecord](db, syncRecordHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid sync record repository wiring: %w", err)
		}
	}
	store := &RecordStore{db: db, repo: repo, window: window}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

func (s *RecordStore) Find(ctx context.Context, kind core.EventKind, entityID string) (core.SyncRecord, bool, error) {
	if s == nil || s.db == nil {
		return core.SyncRecord{}, false, fmt.Errorf("sqlstore: record store is not configured")
	}
	record := &syncRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("kind = ?", string(kind)).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.SyncRecord{}, false, nil
		}
		return core.SyncRecord{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *RecordStore) Insert(ctx context.Context, record core.SyncRecord) (core.SyncRecord, error) {
	if s == nil || s.repo == nil {
		return core.SyncRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	if strings.TrimSpace(record.EntityID) == "" {
		return core.SyncRecord{}, core.BadInput("sync record requires an entity id", nil)
	}
	now := s.now.Now()
	row := newSyncRecord(record)
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	row.BufferedUntil = now.Add(s.window)
	row.CreatedAt = now
	row.UpdatedAt = now
	if _, err := s.repo.Create(ctx, row); err != nil {
		return core.SyncRecord{}, err
	}
	return row.toDomain(), nil
}

func (s *RecordStore) Update(ctx context.Context, record core.SyncRecord) (core.SyncRecord, error) {
	if s == nil || s.db == nil {
		return core.SyncRecord{}, fmt.Errorf("sqlstore: record store is not configured")
	}
	current, found, err := s.Find(ctx, record.Kind, record.EntityID)
	if err != nil {
		return core.SyncRecord{}, err
	}
	if !found {
		return core.SyncRecord{}, core.NotFound("sync record not found", map[string]any{
			"kind":      string(record.Kind),
			"entity_id": record.EntityID,
		})
	}
	now := s.now.Now()
	if current.Buffered(now) {
		return core.SyncRecord{}, core.RecordBuffered("sync record is still in the streaming buffer", map[string]any{
			"kind":           string(record.Kind),
			"entity_id":      record.EntityID,
			"buffered_until": current.BufferedUntil.Format(time.RFC3339),
		})
	}

	payload := record.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	res, err := s.db.NewUpdate().
		Model((*syncRecord)(nil)).
		Set("payload = ?", payload).
		Set("run_id = ?", int64(record.RunID)).
		Set("updated_at = ?", now).
		Where("id = ?", current.ID).
		Where("buffered_until <= ?", now).
		Exec(ctx)
	if err != nil {
		return core.SyncRecord{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return core.SyncRecord{}, core.RecordBuffered("sync record is still in the streaming buffer", map[string]any{
			"kind":      string(record.Kind),
			"entity_id": record.EntityID,
		})
	}

	current.Payload = payload
	current.RunID = record.RunID
	current.UpdatedAt = now
	return current, nil
}

func (s *RecordStore) StillBuffered(ctx context.Context, kind core.EventKind, entityID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: record store is not configured")
	}
	count, err := s.db.NewSelect().
		Model((*syncRecord)(nil)).
		Where("kind = ?", string(kind)).
		Where("entity_id = ?", strings.TrimSpace(entityID)).
		Where("buffered_until > ?", s.now.Now()).
		Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
