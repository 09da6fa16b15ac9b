package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-storesync/core"
)

func newScriptRunRecord(run core.ScriptRun) *scriptRunRecord {
	record := &scriptRunRecord{
		RunID:      int64(run.RunID),
		Customer:   run.Customer,
		Source:     run.Source,
		ScriptName: run.ScriptName,
		StartedAt:  run.StartedAt.UTC(),
	}
	if run.EndedAt != nil {
		endedAt := run.EndedAt.UTC()
		record.EndedAt = &endedAt
	}
	return record
}

func (r *scriptRunRecord) toDomain() core.ScriptRun {
	run := core.ScriptRun{
		RunID:      core.RunID(r.RunID),
		Customer:   r.Customer,
		Source:     r.Source,
		ScriptName: r.ScriptName,
		StartedAt:  r.StartedAt.UTC(),
	}
	if r.EndedAt != nil {
		endedAt := r.EndedAt.UTC()
		run.EndedAt = &endedAt
	}
	return run
}

func newScriptRunLogRecord(entry core.LogEntry) *scriptRunLogRecord {
	record := &scriptRunLogRecord{
		ID:         strings.TrimSpace(entry.ID),
		RunID:      int64(entry.RunID),
		Level:      string(entry.Level),
		Message:    entry.Message,
		LoggedAt:   entry.Timestamp.UTC(),
		Customer:   entry.Customer,
		Source:     entry.Source,
		ScriptName: entry.ScriptName,
	}
	if record.LoggedAt.IsZero() {
		record.LoggedAt = time.Now().UTC()
	}
	if table := strings.TrimSpace(entry.TableName); table != "" {
		record.TableName = &table
	}
	return record
}

func (r *scriptRunLogRecord) toDomain() core.LogEntry {
	entry := core.LogEntry{
		ID:         r.ID,
		RunID:      core.RunID(r.RunID),
		Level:      core.Level(r.Level),
		Message:    r.Message,
		Timestamp:  r.LoggedAt.UTC(),
		Customer:   r.Customer,
		Source:     r.Source,
		ScriptName: r.ScriptName,
	}
	if r.TableName != nil {
		entry.TableName = *r.TableName
	}
	return entry
}

func newSyncRecord(record core.SyncRecord) *syncRecord {
	payload := record.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return &syncRecord{
		ID:            strings.TrimSpace(record.ID),
		Kind:          string(record.Kind),
		EntityID:      strings.TrimSpace(record.EntityID),
		Payload:       payload,
		RunID:         int64(record.RunID),
		BufferedUntil: record.BufferedUntil.UTC(),
		CreatedAt:     record.CreatedAt.UTC(),
		UpdatedAt:     record.UpdatedAt.UTC(),
	}
}

func (r *syncRecord) toDomain() core.SyncRecord {
	return core.SyncRecord{
		ID:            r.ID,
		Kind:          core.EventKind(r.Kind),
		EntityID:      r.EntityID,
		Payload:       r.Payload,
		RunID:         core.RunID(r.RunID),
		BufferedUntil: r.BufferedUntil.UTC(),
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}
