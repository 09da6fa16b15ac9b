package core

import (
	"strconv"
	"strings"
	"time"
)

// RunID identifies one script run. Valid run ids are positive and strictly
// increasing across the lifetime of the run-log store.
type RunID int64

func (id RunID) Valid() bool {
	return id > 0
}

func (id RunID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseRunID(value string) (RunID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, BadInput("core: run id must be an integer", map[string]any{"run_id": value})
	}
	id := RunID(parsed)
	if !id.Valid() {
		return 0, BadInput("core: run id must be positive", map[string]any{"run_id": value})
	}
	return id, nil
}

type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

func (l Level) Valid() bool {
	switch l {
	case LevelInfo, LevelError:
		return true
	default:
		return false
	}
}

// RunIdentity carries the caller supplied identifiers stamped on every run.
type RunIdentity struct {
	Customer   string
	Source     string
	ScriptName string
}

func (i RunIdentity) Normalize() RunIdentity {
	return RunIdentity{
		Customer:   strings.TrimSpace(i.Customer),
		Source:     strings.TrimSpace(i.Source),
		ScriptName: strings.TrimSpace(i.ScriptName),
	}
}

// ScriptRun is allocated once per webhook invocation. A run that never
// completes keeps a nil EndedAt forever; its RunID is never reused.
type ScriptRun struct {
	RunID      RunID
	Customer   string
	Source     string
	ScriptName string
	StartedAt  time.Time
	EndedAt    *time.Time
}

func (r ScriptRun) Identity() RunIdentity {
	return RunIdentity{
		Customer:   r.Customer,
		Source:     r.Source,
		ScriptName: r.ScriptName,
	}
}

func (r ScriptRun) Completed() bool {
	return r.EndedAt != nil
}

// LogEntry is an immutable, append-only audit record tied to a run.
type LogEntry struct {
	ID         string
	RunID      RunID
	Level      Level
	Message    string
	Timestamp  time.Time
	TableName  string
	Customer   string
	Source     string
	ScriptName string
}

type LogPage struct {
	Items   []LogEntry
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

const (
	DefaultLogPageSize = 50
	MaxLogPageSize     = 500
)

// NormalizePage clamps pagination input to a 1-based page and a bounded
// page size.
func NormalizePage(page int, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultLogPageSize
	}
	if perPage > MaxLogPageSize {
		perPage = MaxLogPageSize
	}
	return page, perPage
}
