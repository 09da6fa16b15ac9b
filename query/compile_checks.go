package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-storesync/core"
)

var (
	_ gocmd.Querier[GetRunMessage, core.ScriptRun]           = (*GetRunQuery)(nil)
	_ gocmd.Querier[ListRecentRunsMessage, []core.ScriptRun] = (*ListRecentRunsQuery)(nil)
	_ gocmd.Querier[ListRunLogsMessage, core.LogPage]        = (*ListRunLogsQuery)(nil)
)
