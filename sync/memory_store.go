package sync

import (
	"context"
	"fmt"
	"strings"
	stdsync "sync"
	"time"

	"github.com/goliatone/go-storesync/core"
	"github.com/google/uuid"
)

// MemoryRecordStore is an in-process core.RecordStore with the same
// streaming-buffer rules as the SQL store.
type MemoryRecordStore struct {
	mu      stdsync.RWMutex
	rows    map[string]core.SyncRecord
	window  time.Duration
	now     core.Clock
	updates int
}

func NewMemoryRecordStore(window time.Duration, clock core.Clock) *MemoryRecordStore {
	return &MemoryRecordStore{
		rows:   map[string]core.SyncRecord{},
		window: window,
		now:    clock,
	}
}

func (s *MemoryRecordStore) Find(_ context.Context, kind core.EventKind, entityID string) (core.SyncRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[recordKey(kind, entityID)]
	return row, ok, nil
}

func (s *MemoryRecordStore) Insert(_ context.Context, record core.SyncRecord) (core.SyncRecord, error) {
	if strings.TrimSpace(record.EntityID) == "" {
		return core.SyncRecord{}, core.BadInput("sync record requires an entity id", nil)
	}
	now := s.now.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(record.Kind, record.EntityID)
	if _, exists := s.rows[key]; exists {
		return core.SyncRecord{}, fmt.Errorf("sync: record %s already exists", key)
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.EntityID = strings.TrimSpace(record.EntityID)
	record.BufferedUntil = now.Add(s.window)
	record.CreatedAt = now
	record.UpdatedAt = now
	s.rows[key] = record
	return record, nil
}

func (s *MemoryRecordStore) Update(_ context.Context, record core.SyncRecord) (core.SyncRecord, error) {
	now := s.now.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey(record.Kind, record.EntityID)
	current, ok := s.rows[key]
	if !ok {
		return core.SyncRecord{}, core.NotFound("sync record not found", map[string]any{"key": key})
	}
	if current.Buffered(now) {
		return core.SyncRecord{}, core.RecordBuffered("sync record is still in the streaming buffer", map[string]any{"key": key})
	}
	current.Payload = record.Payload
	current.RunID = record.RunID
	current.UpdatedAt = now
	s.rows[key] = current
	s.updates++
	return current, nil
}

func (s *MemoryRecordStore) StillBuffered(_ context.Context, kind core.EventKind, entityID string) (bool, error) {
	now := s.now.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[recordKey(kind, entityID)]
	if !ok {
		return false, nil
	}
	return row.Buffered(now), nil
}

// Updates reports how many successful updates the store accepted.
func (s *MemoryRecordStore) Updates() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updates
}

func recordKey(kind core.EventKind, entityID string) string {
	return string(kind) + ":" + strings.TrimSpace(entityID)
}
