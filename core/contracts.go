package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

// RunLockedTx exposes the reads and writes allowed while the exclusive
// run-log lock is held.
type RunLockedTx interface {
	MaxRunID(ctx context.Context) (RunID, error)
	InsertRun(ctx context.Context, run ScriptRun) error
}

// RunStore owns ScriptRun rows. WithRunLock must hold a storage-level
// exclusive lock for the whole callback and release it on every exit path.
// It blocks until the lock is obtained and applies no timeout of its own.
type RunStore interface {
	WithRunLock(ctx context.Context, fn func(ctx context.Context, tx RunLockedTx) error) error
	MarkEnded(ctx context.Context, runID RunID, endedAt time.Time) error
	GetRun(ctx context.Context, runID RunID) (ScriptRun, error)
}

// LogStore owns LogEntry rows. Entries are only ever appended.
type LogStore interface {
	Append(ctx context.Context, entry LogEntry) error
	ListByRun(ctx context.Context, runID RunID, page int, perPage int) (LogPage, error)
}

// Synchronizer performs the business upsert for a verified, parsed event.
type Synchronizer interface {
	Synchronize(ctx context.Context, event Event, runID RunID) error
}

type SynchronizerFunc func(ctx context.Context, event Event, runID RunID) error

func (f SynchronizerFunc) Synchronize(ctx context.Context, event Event, runID RunID) error {
	return f(ctx, event, runID)
}

// Auditor is the audit surface handed to collaborators that report progress
// for a run.
type Auditor interface {
	Record(ctx context.Context, runID RunID, level Level, message string, tableName string)
}

type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
