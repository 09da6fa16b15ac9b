package sync

import (
	"context"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"
	gocommand "github.com/goliatone/go-storesync/adapters/gocommand"
	"github.com/goliatone/go-storesync/command"
	"github.com/goliatone/go-storesync/core"
)

// CommandSynchronizer routes each event variant through the go-command
// dispatcher. Ping and unknown events never reach a handler.
type CommandSynchronizer struct {
	adapter       *gocommand.RegistryAdapter
	subscriptions *gocommand.Subscriptions
	auditor       core.Auditor
	logger        core.Logger
}

type CommandOption func(*CommandSynchronizer)

func WithRegistryAdapter(adapter *gocommand.RegistryAdapter) CommandOption {
	return func(s *CommandSynchronizer) {
		if adapter != nil {
			s.adapter = adapter
		}
	}
}

func WithCommandAuditor(auditor core.Auditor) CommandOption {
	return func(s *CommandSynchronizer) {
		s.auditor = auditor
	}
}

func WithCommandLogger(logger core.Logger) CommandOption {
	return func(s *CommandSynchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCommandSynchronizer registers the sync commands for service and
// subscribes them on the dispatcher. Close detaches them.
func NewCommandSynchronizer(service command.RecordService, opts ...CommandOption) (*CommandSynchronizer, error) {
	if service == nil {
		return nil, fmt.Errorf("sync: record service is required")
	}
	s := &CommandSynchronizer{
		subscriptions: &gocommand.Subscriptions{},
		logger:        glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.adapter == nil {
		s.adapter = gocommand.NewRegistryAdapter(nil)
	}

	orderSub, err := gocommand.RegisterAndSubscribe(s.adapter, command.NewSyncOrderCommand(service))
	if err != nil {
		return nil, err
	}
	s.subscriptions.Add(orderSub)
	customerSub, err := gocommand.RegisterAndSubscribe(s.adapter, command.NewSyncCustomerCommand(service))
	if err != nil {
		s.subscriptions.Unsubscribe()
		return nil, err
	}
	s.subscriptions.Add(customerSub)
	subscriptionSub, err := gocommand.RegisterAndSubscribe(s.adapter, command.NewSyncSubscriptionCommand(service))
	if err != nil {
		s.subscriptions.Unsubscribe()
		return nil, err
	}
	s.subscriptions.Add(subscriptionSub)
	return s, nil
}

func (s *CommandSynchronizer) Synchronize(ctx context.Context, event core.Event, runID core.RunID) error {
	if s == nil {
		return fmt.Errorf("sync: command synchronizer is not configured")
	}
	switch typed := event.(type) {
	case core.OrderEvent:
		return dispatch[command.SyncOrderMessage](ctx, s, command.SyncOrderMessage{RunID: runID, Event: typed})
	case core.CustomerEvent:
		return dispatch[command.SyncCustomerMessage](ctx, s, command.SyncCustomerMessage{RunID: runID, Event: typed})
	case core.SubscriptionEvent:
		return dispatch[command.SyncSubscriptionMessage](ctx, s, command.SyncSubscriptionMessage{RunID: runID, Event: typed})
	case core.PingEvent:
		s.audit(ctx, runID, fmt.Sprintf("Ping received for webhook %s", typed.WebhookID))
		return nil
	case nil:
		return core.BadInput("sync: event is required", nil)
	default:
		s.logger.Warn("skipping unsupported webhook event", "run_id", int64(runID), "kind", string(event.Kind()))
		s.audit(ctx, runID, fmt.Sprintf("Skipping unsupported %s event", event.Kind()))
		return nil
	}
}

// Close unsubscribes every command handler this synchronizer registered.
func (s *CommandSynchronizer) Close() {
	if s == nil {
		return
	}
	s.subscriptions.Unsubscribe()
}

type validatedMessage interface {
	Type() string
	Validate() error
}

func dispatch[T validatedMessage](ctx context.Context, s *CommandSynchronizer, msg T) error {
	if err := gocommand.ValidateMessageContract(msg); err != nil {
		return err
	}
	record, ok, err := gocommand.DispatchWithResult[T, core.SyncRecord](ctx, msg)
	if err != nil {
		return err
	}
	if !ok {
		return core.Internal(nil, fmt.Sprintf("sync: no handler produced a record for %s", msg.Type()))
	}
	s.logger.Debug("sync command dispatched",
		"type", msg.Type(),
		"kind", string(record.Kind),
		"entity_id", record.EntityID,
		"run_id", int64(record.RunID),
	)
	return nil
}

func (s *CommandSynchronizer) audit(ctx context.Context, runID core.RunID, message string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, runID, core.LevelInfo, message, "")
}
