package query

import (
	"context"

	"github.com/goliatone/go-storesync/core"
)

type RunReader interface {
	GetRun(ctx context.Context, runID core.RunID) (core.ScriptRun, error)
}

type RecentRunsReader interface {
	ListRuns(ctx context.Context, limit int) ([]core.ScriptRun, error)
}

type RunLogReader interface {
	ListByRun(ctx context.Context, runID core.RunID, page int, perPage int) (core.LogPage, error)
}

type GetRunQuery struct {
	reader RunReader
}

func NewGetRunQuery(reader RunReader) *GetRunQuery {
	return &GetRunQuery{reader: reader}
}

func (q *GetRunQuery) Query(ctx context.Context, msg GetRunMessage) (core.ScriptRun, error) {
	if q == nil || q.reader == nil {
		return core.ScriptRun{}, queryDependencyError("query: run reader is required")
	}
	return q.reader.GetRun(ctx, msg.RunID)
}

type ListRecentRunsQuery struct {
	reader RecentRunsReader
}

func NewListRecentRunsQuery(reader RecentRunsReader) *ListRecentRunsQuery {
	return &ListRecentRunsQuery{reader: reader}
}

func (q *ListRecentRunsQuery) Query(ctx context.Context, msg ListRecentRunsMessage) ([]core.ScriptRun, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: recent runs reader is required")
	}
	return q.reader.ListRuns(ctx, msg.Limit)
}

type ListRunLogsQuery struct {
	reader RunLogReader
}

func NewListRunLogsQuery(reader RunLogReader) *ListRunLogsQuery {
	return &ListRunLogsQuery{reader: reader}
}

func (q *ListRunLogsQuery) Query(ctx context.Context, msg ListRunLogsMessage) (core.LogPage, error) {
	if q == nil || q.reader == nil {
		return core.LogPage{}, queryDependencyError("query: run log reader is required")
	}
	return q.reader.ListByRun(ctx, msg.RunID, msg.Page, msg.PerPage)
}
