package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-storesync/core"
)

// RecordService writes one event variant into the downstream store and
// returns the row as persisted.
type RecordService interface {
	SyncOrder(ctx context.Context, runID core.RunID, event core.OrderEvent) (core.SyncRecord, error)
	SyncCustomer(ctx context.Context, runID core.RunID, event core.CustomerEvent) (core.SyncRecord, error)
	SyncSubscription(ctx context.Context, runID core.RunID, event core.SubscriptionEvent) (core.SyncRecord, error)
}

type SyncOrderCommand struct {
	service RecordService
}

func NewSyncOrderCommand(service RecordService) *SyncOrderCommand {
	return &SyncOrderCommand{service: service}
}

func (c *SyncOrderCommand) Execute(ctx context.Context, msg SyncOrderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: order record service is required")
	}
	out, err := c.service.SyncOrder(ctx, msg.RunID, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SyncCustomerCommand struct {
	service RecordService
}

func NewSyncCustomerCommand(service RecordService) *SyncCustomerCommand {
	return &SyncCustomerCommand{service: service}
}

func (c *SyncCustomerCommand) Execute(ctx context.Context, msg SyncCustomerMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: customer record service is required")
	}
	out, err := c.service.SyncCustomer(ctx, msg.RunID, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SyncSubscriptionCommand struct {
	service RecordService
}

func NewSyncSubscriptionCommand(service RecordService) *SyncSubscriptionCommand {
	return &SyncSubscriptionCommand{service: service}
}

func (c *SyncSubscriptionCommand) Execute(ctx context.Context, msg SyncSubscriptionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: subscription record service is required")
	}
	out, err := c.service.SyncSubscription(ctx, msg.RunID, msg.Event)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
