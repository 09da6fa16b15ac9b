package sqlstore

import "github.com/goliatone/go-storesync/core"

var (
	_ core.RunStore    = (*RunStore)(nil)
	_ core.LogStore    = (*LogStore)(nil)
	_ core.RecordStore = (*RecordStore)(nil)
	_ core.RunLockedTx = (*runLockedTx)(nil)
)
