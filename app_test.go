package storesync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gocommand "github.com/goliatone/go-storesync/adapters/gocommand"
	"github.com/goliatone/go-storesync/core"
	"github.com/goliatone/go-storesync/query"
	"github.com/goliatone/go-storesync/runs"
	recordsync "github.com/goliatone/go-storesync/sync"
	"github.com/goliatone/go-storesync/webhooks"
)

type appFixture struct {
	app     *App
	runs    *runs.MemoryStore
	records *recordsync.MemoryRecordStore
	now     time.Time
	sleeps  int
}

func newAppFixture(t *testing.T) *appFixture {
	t.Helper()
	fx := &appFixture{
		runs: runs.NewMemoryStore(),
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return fx.now }
	fx.records = recordsync.NewMemoryRecordStore(30*time.Second, clock)

	cfg := DefaultConfig()
	cfg.Webhook.Secret = "wc-secret"
	cfg.Webhook.Customer = "acme"
	cfg.Consistency.MaxAttempts = 3
	cfg.Consistency.WaitInterval = "20s"

	app, err := NewApp(cfg, AppDependencies{
		Runs:    fx.runs,
		Logs:    fx.runs,
		Records: fx.records,
		Health:  fx.runs,
		Clock:   clock,
		Sleep: func(_ context.Context, delay time.Duration) error {
			fx.sleeps++
			fx.now = fx.now.Add(delay)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.Close)
	fx.app = app
	return fx
}

func (fx *appFixture) post(t *testing.T, body string, signature string) *httptest.ResponseRecorder {
	t.Helper()
	return fx.postTopic(t, body, signature, "order.updated")
}

func (fx *appFixture) postTopic(t *testing.T, body, signature, topic string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhooks.HeaderSignature, signature)
	if topic != "" {
		req.Header.Set(webhooks.HeaderTopic, topic)
	}
	rec := httptest.NewRecorder()
	fx.app.Router().ServeHTTP(rec, req)
	return rec
}

func TestApp_OrderInsertedThenUpdatedAfterBuffer(t *testing.T) {
	fx := newAppFixture(t)
	created := `{"id":42,"status":"pending"}`
	updated := `{"id":42,"status":"completed"}`

	if rec := fx.post(t, created, webhooks.ComputeSignature([]byte(created), "wc-secret")); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for insert, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := fx.post(t, updated, webhooks.ComputeSignature([]byte(updated), "wc-secret")); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for update, got %d: %s", rec.Code, rec.Body.String())
	}

	if fx.sleeps != 2 {
		t.Fatalf("expected two waits before the buffer cleared, got %d", fx.sleeps)
	}
	if fx.records.Updates() != 1 {
		t.Fatalf("expected one update, got %d", fx.records.Updates())
	}
	record, ok, err := fx.records.Find(context.Background(), core.EventKindOrder, "42")
	if err != nil || !ok {
		t.Fatalf("expected order row, ok=%v err=%v", ok, err)
	}
	if record.RunID != 2 || record.Payload["status"] != "completed" {
		t.Fatalf("unexpected record %+v", record)
	}

	page, err := fx.runs.ListByRun(context.Background(), 2, 1, 50)
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	last := page.Items[len(page.Items)-1]
	if !strings.HasPrefix(last.Message, "Run completed in ") {
		t.Fatalf("expected completion as last entry, got %q", last.Message)
	}
	for _, entry := range page.Items {
		if entry.Customer != "acme" {
			t.Fatalf("expected customer acme on every entry, got %+v", entry)
		}
	}
}

func TestApp_OrderDetectedFromPayloadWithoutTopic(t *testing.T) {
	fx := newAppFixture(t)
	body := `{"id":42,"status":"pending","total":"10.00","currency":"EUR"}`

	if rec := fx.postTopic(t, body, webhooks.ComputeSignature([]byte(body), "wc-secret"), ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	record, ok, err := fx.records.Find(context.Background(), core.EventKindOrder, "42")
	if err != nil || !ok {
		t.Fatalf("expected order row without topic header, ok=%v err=%v", ok, err)
	}
	if record.Payload["currency"] != "EUR" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestApp_QueriesReachableThroughDispatcher(t *testing.T) {
	fx := newAppFixture(t)
	body := `{"id":7,"status":"pending"}`
	fx.post(t, body, webhooks.ComputeSignature([]byte(body), "wc-secret"))

	run, err := gocommand.Query[query.GetRunMessage, core.ScriptRun](context.Background(), query.GetRunMessage{RunID: 1})
	if err != nil {
		t.Fatalf("get run query: %v", err)
	}
	if run.RunID != 1 || !run.Completed() {
		t.Fatalf("unexpected run %+v", run)
	}

	recent, err := gocommand.Query[query.ListRecentRunsMessage, []core.ScriptRun](context.Background(), query.ListRecentRunsMessage{Limit: 5})
	if err != nil {
		t.Fatalf("recent runs query: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected one run, got %d", len(recent))
	}
}

func TestApp_TamperedDeliveryLeavesRunOpen(t *testing.T) {
	fx := newAppFixture(t)
	body := `{"id":7,"status":"pending"}`
	rec := fx.post(t, body, webhooks.ComputeSignature([]byte(`{"id":8}`), "wc-secret"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	run, err := fx.runs.GetRun(context.Background(), 1)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Completed() {
		t.Fatalf("expected rejected run to stay open")
	}
}

func TestApp_HandleWithoutHTTP(t *testing.T) {
	fx := newAppFixture(t)
	resp := fx.app.Handle(context.Background(), nil, http.Header{})
	if resp.StatusCode != http.StatusOK || resp.Status != "no payload" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestNewApp_Validation(t *testing.T) {
	store := runs.NewMemoryStore()
	records := recordsync.NewMemoryRecordStore(time.Minute, nil)

	if _, err := NewApp(DefaultConfig(), AppDependencies{Runs: store, Logs: store, Records: records}); err == nil {
		t.Fatalf("expected missing webhook secret to fail")
	}
	cfg := DefaultConfig()
	cfg.Webhook.Secret = "secret"
	if _, err := NewApp(cfg, AppDependencies{Logs: store, Records: records}); err == nil {
		t.Fatalf("expected missing run store to fail")
	}
	if _, err := NewApp(cfg, AppDependencies{Runs: store, Logs: store}); err == nil {
		t.Fatalf("expected missing record store to fail")
	}
}
