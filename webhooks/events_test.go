package webhooks

import (
	"net/http"
	"testing"
	"time"

	"github.com/goliatone/go-storesync/core"
)

func TestBuildEventUsesTopicHeader(t *testing.T) {
	headers := http.Header{}
	headers.Set(HeaderTopic, "order.updated")
	headers.Set(HeaderDeliveryID, "d-1")
	headers.Set(HeaderSource, "https://shop.example.com/")
	meta := MetaFromHeaders(headers, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	payload, err := ParseBody("application/json", []byte(`{
		"id": 1001, "number": "1001", "status": "processing", "currency": "EUR", "total": "42.00",
		"customer_id": 7, "billing": {"email": "buyer@example.com"},
		"line_items": [{"product_id": 5, "sku": "TEA-1", "name": "Tea", "quantity": 2, "total": "20.00"}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	event := BuildEvent(payload, meta)
	order, ok := event.(core.OrderEvent)
	if !ok {
		t.Fatalf("expected order event, got %T", event)
	}
	if order.EntityID() != "1001" || order.CustomerID != "7" || order.Email != "buyer@example.com" {
		t.Fatalf("unexpected order %#v", order)
	}
	if len(order.LineItems) != 1 || order.LineItems[0].Quantity != 2 || order.LineItems[0].SKU != "TEA-1" {
		t.Fatalf("unexpected line items %#v", order.LineItems)
	}
	if order.Meta().DeliveryID != "d-1" || order.Meta().Topic != "order.updated" {
		t.Fatalf("unexpected meta %#v", order.Meta())
	}
}

func TestBuildEventFallsBackToPayloadShape(t *testing.T) {
	cases := []struct {
		name    string
		payload core.Payload
		kind    core.EventKind
	}{
		{name: "ping", payload: core.Payload{"webhook_id": "12"}, kind: core.EventKindPing},
		{name: "subscription", payload: core.Payload{"id": "3", "billing_period": "month"}, kind: core.EventKindSubscription},
		{name: "order", payload: core.Payload{"id": "4", "order_key": "wc_order_x"}, kind: core.EventKindOrder},
		{name: "customer", payload: core.Payload{"id": "5", "email": "c@d.e", "username": "cde"}, kind: core.EventKindCustomer},
		{name: "order by totals", payload: core.Payload{"id": "42", "status": "pending", "total": "10.00", "currency": "EUR"}, kind: core.EventKindOrder},
		{name: "id and status only", payload: core.Payload{"id": "42", "status": "pending"}, kind: core.EventKindUnknown},
		{name: "unknown", payload: core.Payload{"foo": "bar"}, kind: core.EventKindUnknown},
	}
	for _, tc := range cases {
		if got := BuildEvent(tc.payload, core.EventMeta{}).Kind(); got != tc.kind {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.kind, got)
		}
	}
}

func TestBuildEventUnknownTopicIsUnknown(t *testing.T) {
	event := BuildEvent(core.Payload{"id": "1", "line_items": []any{}}, core.EventMeta{Topic: "coupon.created"})
	if event.Kind() != core.EventKindUnknown {
		t.Fatalf("expected unknown event for coupon topic, got %s", event.Kind())
	}
}

func TestBuildEventPingFromForm(t *testing.T) {
	payload, err := ParseBody("application/x-www-form-urlencoded", []byte("webhook_id=42"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ping, ok := BuildEvent(payload, core.EventMeta{Topic: "action.wc_webhook_ping"}).(core.PingEvent)
	if !ok || ping.WebhookID != "42" {
		t.Fatalf("expected ping with webhook id 42, got %#v", ping)
	}
}
