package runs

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storesync/adapters/gologger"
	"github.com/goliatone/go-storesync/core"
	"github.com/google/uuid"
)

// AuditLog appends LogEntry rows for a run. It never returns an error: when
// the store cannot be reached the entry is written to the fallback logger.
type AuditLog struct {
	logs     core.LogStore
	runs     core.RunStore
	identity core.RunIdentity
	fallback core.Logger
	now      core.Clock
	newID    func() string
}

type AuditOption func(*AuditLog)

func WithIdentity(identity core.RunIdentity) AuditOption {
	return func(a *AuditLog) {
		a.identity = identity.Normalize()
	}
}

// WithFallback replaces the standard error fallback channel.
func WithFallback(logger core.Logger) AuditOption {
	return func(a *AuditLog) {
		if logger != nil {
			a.fallback = logger
		}
	}
}

func WithAuditClock(clock core.Clock) AuditOption {
	return func(a *AuditLog) {
		a.now = clock
	}
}

func WithIDGenerator(fn func() string) AuditOption {
	return func(a *AuditLog) {
		if fn != nil {
			a.newID = fn
		}
	}
}

func NewAuditLog(logs core.LogStore, runs core.RunStore, opts ...AuditOption) *AuditLog {
	audit := &AuditLog{
		logs:  logs,
		runs:  runs,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(audit)
		}
	}
	if audit.fallback == nil {
		audit.fallback = gologger.NewStderrLogger("storesync.audit")
	}
	return audit
}

func (a *AuditLog) Fallback() core.Logger {
	if a == nil || a.fallback == nil {
		return glog.Nop()
	}
	return a.fallback
}

// Record appends one entry for runID. tableName is optional.
func (a *AuditLog) Record(ctx context.Context, runID core.RunID, level core.Level, message string, tableName string) {
	if a == nil {
		return
	}
	if !level.Valid() {
		level = core.LevelInfo
	}
	entry := core.LogEntry{
		ID:         a.newID(),
		RunID:      runID,
		Level:      level,
		Message:    message,
		Timestamp:  a.now.Now(),
		TableName:  strings.TrimSpace(tableName),
		Customer:   a.identity.Customer,
		Source:     a.identity.Source,
		ScriptName: a.identity.ScriptName,
	}
	if a.logs == nil {
		a.fallbackEntry(ctx, entry, fmt.Errorf("runs: log store is not configured"))
		return
	}
	if err := a.logs.Append(ctx, entry); err != nil {
		a.fallbackEntry(ctx, entry, err)
	}
}

func (a *AuditLog) Info(ctx context.Context, runID core.RunID, message string) {
	a.Record(ctx, runID, core.LevelInfo, message, "")
}

func (a *AuditLog) Error(ctx context.Context, runID core.RunID, message string) {
	a.Record(ctx, runID, core.LevelError, message, "")
}

// EndRun writes the completion entry with the elapsed time as H:MM:SS, marks
// the run ended and echoes the completion to the fallback channel.
func (a *AuditLog) EndRun(ctx context.Context, runID core.RunID, startedAt time.Time) {
	if a == nil {
		return
	}
	endedAt := a.now.Now()
	elapsed := core.FormatElapsed(endedAt.Sub(startedAt))
	message := "Run completed in " + elapsed
	a.Record(ctx, runID, core.LevelInfo, message, "")

	if a.runs != nil {
		if err := a.runs.MarkEnded(ctx, runID, endedAt); err != nil {
			core.LogWithLevel(ctx, a.fallback, "error", "mark run ended failed", map[string]any{
				"run_id": int64(runID),
				"error":  err.Error(),
			})
		}
	}
	core.LogWithLevel(ctx, a.fallback, "info", message, map[string]any{
		"run_id":      int64(runID),
		"elapsed":     elapsed,
		"source":      a.identity.Source,
		"script_name": a.identity.ScriptName,
	})
}

func (a *AuditLog) fallbackEntry(ctx context.Context, entry core.LogEntry, cause error) {
	fields := map[string]any{
		"run_id": int64(entry.RunID),
		"level":  string(entry.Level),
		"error":  cause.Error(),
	}
	if entry.TableName != "" {
		fields["table_name"] = entry.TableName
	}
	core.LogWithLevel(ctx, a.fallback, "error", "audit log write failed: "+entry.Message, fields)
}
