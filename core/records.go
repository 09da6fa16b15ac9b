package core

import (
	"context"
	"time"
)

// SyncRecord is one row in the downstream analytical store. Rows written by
// streaming insert stay in the buffer until BufferedUntil and cannot be
// mutated before then.
type SyncRecord struct {
	ID            string
	Kind          EventKind
	EntityID      string
	Payload       map[string]any
	RunID         RunID
	BufferedUntil time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r SyncRecord) Buffered(now time.Time) bool {
	return now.Before(r.BufferedUntil)
}

type RecordStore interface {
	Find(ctx context.Context, kind EventKind, entityID string) (SyncRecord, bool, error)
	// Insert streams a new row; it stays buffered for the store's window.
	Insert(ctx context.Context, record SyncRecord) (SyncRecord, error)
	// Update mutates a row that has left the buffer. Updating a buffered row
	// fails.
	Update(ctx context.Context, record SyncRecord) (SyncRecord, error)
	// StillBuffered reports whether the row keyed by kind and entityID is
	// still inside the streaming buffer.
	StillBuffered(ctx context.Context, kind EventKind, entityID string) (bool, error)
}
