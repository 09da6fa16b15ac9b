package sync

import (
	"context"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-storesync/consistency"
	"github.com/goliatone/go-storesync/core"
)

type warnCollector struct {
	mu    stdsync.Mutex
	warns []string
}

func (l *warnCollector) Trace(string, ...any) {}
func (l *warnCollector) Debug(string, ...any) {}
func (l *warnCollector) Info(string, ...any)  {}
func (l *warnCollector) Error(string, ...any) {}
func (l *warnCollector) Fatal(string, ...any) {}

func (l *warnCollector) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *warnCollector) WithContext(context.Context) glog.Logger { return l }

func (l *warnCollector) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

type auditRecord struct {
	runID   core.RunID
	level   core.Level
	message string
	table   string
}

type recordingAuditor struct {
	mu      stdsync.Mutex
	records []auditRecord
}

func (a *recordingAuditor) Record(_ context.Context, runID core.RunID, level core.Level, message string, table string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, auditRecord{runID: runID, level: level, message: message, table: table})
}

func (a *recordingAuditor) messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.records))
	for _, record := range a.records {
		out = append(out, record.message)
	}
	return out
}

type manualClock struct {
	mu  stdsync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRecordFixture(t *testing.T, window time.Duration, maxAttempts int) (*RecordSynchronizer, *MemoryRecordStore, *manualClock, *recordingAuditor) {
	t.Helper()
	clock := &manualClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := NewMemoryRecordStore(window, clock.Now)
	auditor := &recordingAuditor{}
	waiter := &consistency.Waiter{
		MaxAttempts:  maxAttempts,
		WaitInterval: 10 * time.Minute,
		Auditor:      auditor,
		Sleep: func(_ context.Context, delay time.Duration) error {
			clock.Advance(delay)
			return nil
		},
	}
	synchronizer, err := NewRecordSynchronizer(store, waiter, auditor)
	if err != nil {
		t.Fatalf("new record synchronizer: %v", err)
	}
	return synchronizer, store, clock, auditor
}

func TestRecordSynchronizer_InsertsNewRows(t *testing.T) {
	synchronizer, store, _, auditor := newRecordFixture(t, 15*time.Minute, 3)

	err := synchronizer.Synchronize(context.Background(), core.OrderEvent{
		ID:     "1001",
		Status: "processing",
		Raw:    core.Payload{"id": "1001", "status": "processing", "total": "19.99"},
	}, 5)
	if err != nil {
		t.Fatalf("synchronize: %v", err)
	}

	row, ok, _ := store.Find(context.Background(), core.EventKindOrder, "1001")
	if !ok {
		t.Fatalf("expected order row")
	}
	if row.RunID != 5 || row.Payload["total"] != "19.99" {
		t.Fatalf("unexpected row %#v", row)
	}
	if got := auditor.messages(); len(got) != 1 || got[0] != "Inserted order 1001" {
		t.Fatalf("unexpected audit messages %v", got)
	}
}

func TestRecordSynchronizer_WaitsForBufferBeforeUpdating(t *testing.T) {
	synchronizer, store, _, auditor := newRecordFixture(t, 15*time.Minute, 5)
	ctx := context.Background()

	if _, err := synchronizer.SyncCustomer(ctx, 1, core.CustomerEvent{ID: "42", Email: "old@example.com"}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	updated, err := synchronizer.SyncCustomer(ctx, 2, core.CustomerEvent{ID: "42", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if updated.RunID != 2 || updated.Payload["email"] != "new@example.com" {
		t.Fatalf("unexpected updated row %#v", updated)
	}
	if store.Updates() != 1 {
		t.Fatalf("expected exactly one update, got %d", store.Updates())
	}

	messages := auditor.messages()
	if messages[len(messages)-1] != "Updated customer 42" {
		t.Fatalf("expected update audit last, got %v", messages)
	}
}

func TestRecordSynchronizer_ExhaustionNeverMutates(t *testing.T) {
	synchronizer, store, _, _ := newRecordFixture(t, 24*time.Hour, 3)
	ctx := context.Background()

	if _, err := synchronizer.SyncSubscription(ctx, 1, core.SubscriptionEvent{ID: "sub_1", Status: "active"}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	_, err := synchronizer.SyncSubscription(ctx, 2, core.SubscriptionEvent{ID: "sub_1", Status: "cancelled"})
	if !core.IsKind(err, core.ErrorConsistencyExhausted) {
		t.Fatalf("expected consistency exhausted, got %v", err)
	}
	if store.Updates() != 0 {
		t.Fatalf("expected no updates after exhaustion, got %d", store.Updates())
	}
	row, _, _ := store.Find(ctx, core.EventKindSubscription, "sub_1")
	if row.Payload["status"] != "active" || row.RunID != 1 {
		t.Fatalf("expected original row untouched, got %#v", row)
	}
}

func TestRecordSynchronizer_PingAndUnknownAreNoOps(t *testing.T) {
	synchronizer, store, _, auditor := newRecordFixture(t, time.Minute, 1)
	ctx := context.Background()

	if err := synchronizer.Synchronize(ctx, core.PingEvent{WebhookID: "17"}, 3); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := synchronizer.Synchronize(ctx, core.UnknownEvent{Raw: core.Payload{"foo": "bar"}}, 3); err != nil {
		t.Fatalf("unknown: %v", err)
	}
	if _, ok, _ := store.Find(ctx, core.EventKindPing, "17"); ok {
		t.Fatalf("ping must not write rows")
	}
	messages := auditor.messages()
	if len(messages) != 2 || !strings.Contains(messages[0], "Ping received") || !strings.Contains(messages[1], "unknown") {
		t.Fatalf("unexpected audit messages %v", messages)
	}
}

func TestRecordSynchronizer_UnknownEventLogsWarning(t *testing.T) {
	store := NewMemoryRecordStore(time.Minute, time.Now)
	logger := &warnCollector{}
	synchronizer, err := NewRecordSynchronizer(store, &consistency.Waiter{MaxAttempts: 1}, nil, WithRecordLogger(logger))
	if err != nil {
		t.Fatalf("new record synchronizer: %v", err)
	}

	if err := synchronizer.Synchronize(context.Background(), core.UnknownEvent{Raw: core.Payload{"id": "42"}}, 4); err != nil {
		t.Fatalf("unknown: %v", err)
	}
	warns := logger.messages()
	if len(warns) != 1 || !strings.Contains(warns[0], "unsupported") {
		t.Fatalf("expected one warning for the skipped event, got %v", warns)
	}
}

func TestRecordSynchronizer_RejectsMissingIDsAndDependencies(t *testing.T) {
	synchronizer, _, _, _ := newRecordFixture(t, time.Minute, 1)
	if _, err := synchronizer.SyncOrder(context.Background(), 1, core.OrderEvent{}); !core.IsKind(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input for missing id, got %v", err)
	}
	if err := synchronizer.Synchronize(context.Background(), nil, 1); !core.IsKind(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input for nil event, got %v", err)
	}
	if _, err := NewRecordSynchronizer(nil, &consistency.Waiter{}, nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
	if _, err := NewRecordSynchronizer(NewMemoryRecordStore(time.Minute, nil), nil, nil); err == nil {
		t.Fatalf("expected error for nil waiter")
	}
}
