package sync

import (
	"context"
	"fmt"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storesync/consistency"
	"github.com/goliatone/go-storesync/core"
)

const (
	TableOrders        = "orders"
	TableCustomers     = "customers"
	TableSubscriptions = "subscriptions"
)

type ConsistencyWaiter interface {
	Wait(ctx context.Context, runID core.RunID, check consistency.Check) consistency.Result
}

// RecordSynchronizer upserts events into a core.RecordStore. New rows are
// streamed in; existing rows are only updated after the waiter reports they
// left the streaming buffer.
type RecordSynchronizer struct {
	records core.RecordStore
	waiter  ConsistencyWaiter
	auditor core.Auditor
	logger  core.Logger
}

type RecordOption func(*RecordSynchronizer)

func WithRecordLogger(logger core.Logger) RecordOption {
	return func(s *RecordSynchronizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewRecordSynchronizer(
	records core.RecordStore,
	waiter ConsistencyWaiter,
	auditor core.Auditor,
	opts ...RecordOption,
) (*RecordSynchronizer, error) {
	if records == nil {
		return nil, fmt.Errorf("sync: record store is required")
	}
	if waiter == nil {
		return nil, fmt.Errorf("sync: consistency waiter is required")
	}
	s := &RecordSynchronizer{
		records: records,
		waiter:  waiter,
		auditor: auditor,
		logger:  glog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func (s *RecordSynchronizer) Synchronize(ctx context.Context, event core.Event, runID core.RunID) error {
	if s == nil {
		return fmt.Errorf("sync: record synchronizer is not configured")
	}
	switch typed := event.(type) {
	case core.OrderEvent:
		_, err := s.SyncOrder(ctx, runID, typed)
		return err
	case core.CustomerEvent:
		_, err := s.SyncCustomer(ctx, runID, typed)
		return err
	case core.SubscriptionEvent:
		_, err := s.SyncSubscription(ctx, runID, typed)
		return err
	case core.PingEvent:
		s.audit(ctx, runID, fmt.Sprintf("Ping received for webhook %s", typed.WebhookID), "")
		return nil
	case nil:
		return core.BadInput("sync: event is required", nil)
	default:
		s.logger.Warn("skipping unsupported webhook event", "run_id", int64(runID), "kind", string(event.Kind()))
		s.audit(ctx, runID, fmt.Sprintf("Skipping unsupported %s event", event.Kind()), "")
		return nil
	}
}

func (s *RecordSynchronizer) SyncOrder(ctx context.Context, runID core.RunID, event core.OrderEvent) (core.SyncRecord, error) {
	return s.upsert(ctx, runID, core.EventKindOrder, event.ID, TableOrders, orderPayload(event))
}

func (s *RecordSynchronizer) SyncCustomer(ctx context.Context, runID core.RunID, event core.CustomerEvent) (core.SyncRecord, error) {
	return s.upsert(ctx, runID, core.EventKindCustomer, event.ID, TableCustomers, customerPayload(event))
}

func (s *RecordSynchronizer) SyncSubscription(
	ctx context.Context,
	runID core.RunID,
	event core.SubscriptionEvent,
) (core.SyncRecord, error) {
	return s.upsert(ctx, runID, core.EventKindSubscription, event.ID, TableSubscriptions, subscriptionPayload(event))
}

func (s *RecordSynchronizer) upsert(
	ctx context.Context,
	runID core.RunID,
	kind core.EventKind,
	entityID string,
	table string,
	payload map[string]any,
) (core.SyncRecord, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return core.SyncRecord{}, core.BadInput(fmt.Sprintf("sync: %s event has no id", kind), nil)
	}
	metadata := map[string]any{"kind": string(kind), "entity_id": entityID, "run_id": int64(runID)}

	_, found, err := s.records.Find(ctx, kind, entityID)
	if err != nil {
		return core.SyncRecord{}, core.StoreUnavailable(err, "sync: lookup failed", metadata)
	}
	if !found {
		inserted, err := s.records.Insert(ctx, core.SyncRecord{
			Kind:     kind,
			EntityID: entityID,
			Payload:  payload,
			RunID:    runID,
		})
		if err != nil {
			return core.SyncRecord{}, core.StoreUnavailable(err, "sync: insert failed", metadata)
		}
		s.audit(ctx, runID, fmt.Sprintf("Inserted %s %s", kind, entityID), table)
		return inserted, nil
	}

	result := s.waiter.Wait(ctx, runID, consistency.Check{
		EntityID:  entityID,
		TableName: table,
		Predicate: func(ctx context.Context) (bool, error) {
			return s.records.StillBuffered(ctx, kind, entityID)
		},
	})
	if !result.Visible() {
		metadata["attempts"] = result.Attempts
		if result.Err != nil {
			metadata["last_error"] = result.Err.Error()
		}
		return core.SyncRecord{}, core.ConsistencyExhausted(
			fmt.Sprintf("sync: %s %s is still in the streaming buffer", kind, entityID),
			metadata,
		)
	}

	updated, err := s.records.Update(ctx, core.SyncRecord{
		Kind:     kind,
		EntityID: entityID,
		Payload:  payload,
		RunID:    runID,
	})
	if err != nil {
		if core.IsKind(err, core.ErrorRecordBuffered) {
			return core.SyncRecord{}, err
		}
		return core.SyncRecord{}, core.StoreUnavailable(err, "sync: update failed", metadata)
	}
	s.audit(ctx, runID, fmt.Sprintf("Updated %s %s", kind, entityID), table)
	s.logger.Debug("downstream record updated", "kind", string(kind), "entity_id", entityID, "attempts", result.Attempts)
	return updated, nil
}

func (s *RecordSynchronizer) audit(ctx context.Context, runID core.RunID, message string, table string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, runID, core.LevelInfo, message, table)
}

func orderPayload(event core.OrderEvent) map[string]any {
	payload := rawCopy(event.Raw)
	payload["id"] = event.ID
	setIfPresent(payload, "number", event.Number)
	setIfPresent(payload, "status", event.Status)
	setIfPresent(payload, "currency", event.Currency)
	setIfPresent(payload, "total", event.Total)
	setIfPresent(payload, "customer_id", event.CustomerID)
	setIfPresent(payload, "email", event.Email)
	return payload
}

func customerPayload(event core.CustomerEvent) map[string]any {
	payload := rawCopy(event.Raw)
	payload["id"] = event.ID
	setIfPresent(payload, "email", event.Email)
	setIfPresent(payload, "first_name", event.FirstName)
	setIfPresent(payload, "last_name", event.LastName)
	return payload
}

func subscriptionPayload(event core.SubscriptionEvent) map[string]any {
	payload := rawCopy(event.Raw)
	payload["id"] = event.ID
	setIfPresent(payload, "status", event.Status)
	setIfPresent(payload, "customer_id", event.CustomerID)
	setIfPresent(payload, "parent_order_id", event.ParentOrderID)
	setIfPresent(payload, "next_payment_date", event.NextPaymentDate)
	return payload
}

func rawCopy(raw core.Payload) map[string]any {
	out := make(map[string]any, len(raw)+4)
	for key, value := range raw {
		out[key] = value
	}
	return out
}

func setIfPresent(payload map[string]any, key string, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	payload[key] = value
}
