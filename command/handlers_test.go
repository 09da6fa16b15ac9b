package command

import (
	"context"
	"fmt"
	"testing"

	gocmd "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-storesync/core"
)

func TestSyncOrderCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.SyncRecord{ID: "rec_1", Kind: core.EventKindOrder, EntityID: "1001", RunID: 7}
	called := false
	svc := stubRecordService{
		syncOrderFn: func(_ context.Context, runID core.RunID, event core.OrderEvent) (core.SyncRecord, error) {
			called = true
			if runID != 7 || event.ID != "1001" {
				t.Fatalf("unexpected order payload: %d %q", runID, event.ID)
			}
			return expected, nil
		},
	}

	collector := gocmd.NewResult[core.SyncRecord]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)
	err := NewSyncOrderCommand(svc).Execute(ctx, SyncOrderMessage{RunID: 7, Event: core.OrderEvent{ID: "1001"}})
	if err != nil {
		t.Fatalf("execute sync order: %v", err)
	}
	if !called {
		t.Fatalf("expected order service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.ID != expected.ID || result.RunID != expected.RunID {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestSyncCommands_DelegateToService(t *testing.T) {
	t.Run("customer", func(t *testing.T) {
		called := false
		svc := stubRecordService{
			syncCustomerFn: func(_ context.Context, runID core.RunID, event core.CustomerEvent) (core.SyncRecord, error) {
				called = true
				if event.Email != "ana@example.com" {
					t.Fatalf("unexpected customer event: %#v", event)
				}
				return core.SyncRecord{Kind: core.EventKindCustomer, EntityID: event.ID, RunID: runID}, nil
			},
		}
		err := NewSyncCustomerCommand(svc).Execute(context.Background(), SyncCustomerMessage{
			RunID: 3,
			Event: core.CustomerEvent{ID: "42", Email: "ana@example.com"},
		})
		if err != nil {
			t.Fatalf("execute sync customer: %v", err)
		}
		if !called {
			t.Fatalf("expected customer service invocation")
		}
	})

	t.Run("subscription error bubbles", func(t *testing.T) {
		svc := stubRecordService{
			syncSubscriptionFn: func(context.Context, core.RunID, core.SubscriptionEvent) (core.SyncRecord, error) {
				return core.SyncRecord{}, core.ConsistencyExhausted("row still buffered", nil)
			},
		}
		err := NewSyncSubscriptionCommand(svc).Execute(context.Background(), SyncSubscriptionMessage{
			RunID: 3,
			Event: core.SubscriptionEvent{ID: "sub_9"},
		})
		if !core.IsKind(err, core.ErrorConsistencyExhausted) {
			t.Fatalf("expected consistency exhausted, got %v", err)
		}
	})
}

func TestSyncMessages_ValidateReturnsRichError(t *testing.T) {
	cases := map[string]error{
		"order missing run":     (SyncOrderMessage{Event: core.OrderEvent{ID: "1"}}).Validate(),
		"order missing id":      (SyncOrderMessage{RunID: 1}).Validate(),
		"customer missing id":   (SyncCustomerMessage{RunID: 1}).Validate(),
		"subscription zero run": (SyncSubscriptionMessage{Event: core.SubscriptionEvent{ID: "s"}}).Validate(),
	}
	for name, err := range cases {
		t.Run(name, func(t *testing.T) {
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var rich *goerrors.Error
			if !goerrors.As(err, &rich) {
				t.Fatalf("expected go-errors envelope, got %T", err)
			}
			if rich.Category != goerrors.CategoryValidation {
				t.Fatalf("expected validation category, got %q", rich.Category)
			}
			if rich.TextCode != core.ErrorBadInput {
				t.Fatalf("expected %q text code, got %q", core.ErrorBadInput, rich.TextCode)
			}
		})
	}

	if err := (SyncOrderMessage{RunID: 1, Event: core.OrderEvent{ID: "1"}}).Validate(); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
}

func TestSyncOrderCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *SyncOrderCommand
	err := cmd.Execute(context.Background(), SyncOrderMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}

type stubRecordService struct {
	syncOrderFn        func(context.Context, core.RunID, core.OrderEvent) (core.SyncRecord, error)
	syncCustomerFn     func(context.Context, core.RunID, core.CustomerEvent) (core.SyncRecord, error)
	syncSubscriptionFn func(context.Context, core.RunID, core.SubscriptionEvent) (core.SyncRecord, error)
}

func (s stubRecordService) SyncOrder(ctx context.Context, runID core.RunID, event core.OrderEvent) (core.SyncRecord, error) {
	if s.syncOrderFn == nil {
		return core.SyncRecord{}, fmt.Errorf("sync order not configured")
	}
	return s.syncOrderFn(ctx, runID, event)
}

func (s stubRecordService) SyncCustomer(ctx context.Context, runID core.RunID, event core.CustomerEvent) (core.SyncRecord, error) {
	if s.syncCustomerFn == nil {
		return core.SyncRecord{}, fmt.Errorf("sync customer not configured")
	}
	return s.syncCustomerFn(ctx, runID, event)
}

func (s stubRecordService) SyncSubscription(
	ctx context.Context,
	runID core.RunID,
	event core.SubscriptionEvent,
) (core.SyncRecord, error) {
	if s.syncSubscriptionFn == nil {
		return core.SyncRecord{}, fmt.Errorf("sync subscription not configured")
	}
	return s.syncSubscriptionFn(ctx, runID, event)
}

var _ RecordService = stubRecordService{}
