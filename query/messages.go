package query

import (
	"github.com/goliatone/go-storesync/core"
)

const (
	TypeGetRun         = "storesync.query.run.get"
	TypeListRecentRuns = "storesync.query.run.list_recent"
	TypeListRunLogs    = "storesync.query.run_logs.list"
)

type GetRunMessage struct {
	RunID core.RunID
}

func (GetRunMessage) Type() string { return TypeGetRun }

func (m GetRunMessage) Validate() error {
	if !m.RunID.Valid() {
		return queryValidationError("run_id", "run id must be positive")
	}
	return nil
}

type ListRecentRunsMessage struct {
	Limit int
}

func (ListRecentRunsMessage) Type() string { return TypeListRecentRuns }

func (m ListRecentRunsMessage) Validate() error {
	if m.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	return nil
}

type ListRunLogsMessage struct {
	RunID   core.RunID
	Page    int
	PerPage int
}

func (ListRunLogsMessage) Type() string { return TypeListRunLogs }

func (m ListRunLogsMessage) Validate() error {
	if !m.RunID.Valid() {
		return queryValidationError("run_id", "run id must be positive")
	}
	if m.Page < 0 {
		return queryValidationError("page", "page must be >= 0")
	}
	if m.PerPage < 0 {
		return queryValidationError("per_page", "per_page must be >= 0")
	}
	return nil
}
