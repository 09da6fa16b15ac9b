package sync

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-storesync/core"
)

func TestCommandSynchronizer_RoutesVariantsThroughDispatcher(t *testing.T) {
	records, store, _, auditor := newRecordFixture(t, 15*time.Minute, 3)
	synchronizer, err := NewCommandSynchronizer(records, WithCommandAuditor(auditor))
	if err != nil {
		t.Fatalf("new command synchronizer: %v", err)
	}
	defer synchronizer.Close()
	ctx := context.Background()

	if err := synchronizer.Synchronize(ctx, core.OrderEvent{ID: "2001", Status: "pending"}, 9); err != nil {
		t.Fatalf("synchronize order: %v", err)
	}
	if err := synchronizer.Synchronize(ctx, core.CustomerEvent{ID: "77", Email: "c@example.com"}, 9); err != nil {
		t.Fatalf("synchronize customer: %v", err)
	}
	if err := synchronizer.Synchronize(ctx, core.SubscriptionEvent{ID: "s1"}, 9); err != nil {
		t.Fatalf("synchronize subscription: %v", err)
	}

	for _, key := range []struct {
		kind core.EventKind
		id   string
	}{
		{core.EventKindOrder, "2001"},
		{core.EventKindCustomer, "77"},
		{core.EventKindSubscription, "s1"},
	} {
		row, ok, _ := store.Find(ctx, key.kind, key.id)
		if !ok || row.RunID != 9 {
			t.Fatalf("expected %s %s written by run 9, got %#v ok=%v", key.kind, key.id, row, ok)
		}
	}
}

func TestCommandSynchronizer_ValidationAndErrorsBubble(t *testing.T) {
	records, _, _, auditor := newRecordFixture(t, 24*time.Hour, 2)
	synchronizer, err := NewCommandSynchronizer(records, WithCommandAuditor(auditor))
	if err != nil {
		t.Fatalf("new command synchronizer: %v", err)
	}
	defer synchronizer.Close()
	ctx := context.Background()

	if err := synchronizer.Synchronize(ctx, core.OrderEvent{ID: "3001"}, 0); err == nil {
		t.Fatalf("expected validation error for zero run id")
	}
	if err := synchronizer.Synchronize(ctx, core.OrderEvent{ID: "3001"}, 1); err != nil {
		t.Fatalf("first synchronize: %v", err)
	}
	err = synchronizer.Synchronize(ctx, core.OrderEvent{ID: "3001", Status: "completed"}, 2)
	if !core.IsKind(err, core.ErrorConsistencyExhausted) {
		t.Fatalf("expected consistency exhausted, got %v", err)
	}
	if err := synchronizer.Synchronize(ctx, core.PingEvent{WebhookID: "5"}, 2); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewCommandSynchronizer_RequiresService(t *testing.T) {
	if _, err := NewCommandSynchronizer(nil); err == nil {
		t.Fatalf("expected error for nil service")
	}
}
