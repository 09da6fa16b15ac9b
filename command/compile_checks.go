package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[SyncOrderMessage]        = (*SyncOrderCommand)(nil)
	_ gocmd.Commander[SyncCustomerMessage]     = (*SyncCustomerCommand)(nil)
	_ gocmd.Commander[SyncSubscriptionMessage] = (*SyncSubscriptionCommand)(nil)
)
