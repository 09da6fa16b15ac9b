package sync

import (
	"github.com/goliatone/go-storesync/command"
	"github.com/goliatone/go-storesync/consistency"
	"github.com/goliatone/go-storesync/core"
)

var (
	_ core.Synchronizer     = (*RecordSynchronizer)(nil)
	_ core.Synchronizer     = (*CommandSynchronizer)(nil)
	_ command.RecordService = (*RecordSynchronizer)(nil)
	_ core.RecordStore      = (*MemoryRecordStore)(nil)
	_ ConsistencyWaiter     = (*consistency.Waiter)(nil)
)
