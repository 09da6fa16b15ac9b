package webhooks

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-storesync/core"
)

const (
	HeaderTopic      = "X-WC-Webhook-Topic"
	HeaderDeliveryID = "X-WC-Webhook-Delivery-ID"
	HeaderSource     = "X-WC-Webhook-Source"
)

func MetaFromHeaders(headers http.Header, receivedAt time.Time) core.EventMeta {
	return core.EventMeta{
		Topic:      strings.TrimSpace(headers.Get(HeaderTopic)),
		DeliveryID: strings.TrimSpace(headers.Get(HeaderDeliveryID)),
		Source:     strings.TrimSpace(headers.Get(HeaderSource)),
		ReceivedAt: receivedAt.UTC(),
	}
}

// BuildEvent narrows a parsed payload into an event variant. The topic header
// wins when present; otherwise the payload shape decides.
func BuildEvent(payload core.Payload, meta core.EventMeta) core.Event {
	switch resolveKind(payload, meta.Topic) {
	case core.EventKindPing:
		return core.PingEvent{EventMeta: meta, WebhookID: stringField(payload, "webhook_id")}
	case core.EventKindOrder:
		return buildOrder(payload, meta)
	case core.EventKindCustomer:
		return core.CustomerEvent{
			EventMeta: meta,
			ID:        stringField(payload, "id"),
			Email:     stringField(payload, "email"),
			FirstName: stringField(payload, "first_name"),
			LastName:  stringField(payload, "last_name"),
			Raw:       payload,
		}
	case core.EventKindSubscription:
		return core.SubscriptionEvent{
			EventMeta:       meta,
			ID:              stringField(payload, "id"),
			Status:          stringField(payload, "status"),
			CustomerID:      stringField(payload, "customer_id"),
			ParentOrderID:   stringField(payload, "parent_id"),
			NextPaymentDate: stringField(payload, "next_payment_date"),
			Raw:             payload,
		}
	default:
		return core.UnknownEvent{EventMeta: meta, Raw: payload}
	}
}

func resolveKind(payload core.Payload, topic string) core.EventKind {
	if _, ok := payload["webhook_id"]; ok && len(payload) == 1 {
		return core.EventKindPing
	}
	topic = strings.ToLower(strings.TrimSpace(topic))
	if resource, _, ok := strings.Cut(topic, "."); ok {
		switch resource {
		case "order":
			return core.EventKindOrder
		case "customer":
			return core.EventKindCustomer
		case "subscription":
			return core.EventKindSubscription
		}
	}
	if topic != "" {
		return core.EventKindUnknown
	}
	switch {
	case hasAny(payload, "billing_period", "next_payment_date"):
		return core.EventKindSubscription
	case hasAny(payload, "line_items", "order_key"):
		return core.EventKindOrder
	case hasAny(payload, "email") && hasAny(payload, "username", "first_name", "role"):
		return core.EventKindCustomer
	case hasAny(payload, "id") && hasAny(payload, "currency", "total", "number", "payment_method"):
		return core.EventKindOrder
	default:
		return core.EventKindUnknown
	}
}

func buildOrder(payload core.Payload, meta core.EventMeta) core.OrderEvent {
	event := core.OrderEvent{
		EventMeta:  meta,
		ID:         stringField(payload, "id"),
		Number:     stringField(payload, "number"),
		Status:     stringField(payload, "status"),
		Currency:   stringField(payload, "currency"),
		Total:      stringField(payload, "total"),
		CustomerID: stringField(payload, "customer_id"),
		Raw:        payload,
	}
	if billing, ok := payload["billing"].(map[string]any); ok {
		event.Email = stringField(billing, "email")
	}
	for _, raw := range listField(payload, "line_items") {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		quantity, _ := strconv.Atoi(stringField(item, "quantity"))
		event.LineItems = append(event.LineItems, core.LineItem{
			ProductID: stringField(item, "product_id"),
			SKU:       stringField(item, "sku"),
			Name:      stringField(item, "name"),
			Quantity:  quantity,
			Total:     stringField(item, "total"),
		})
	}
	return event
}

func hasAny(payload map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := payload[key]; ok {
			return true
		}
	}
	return false
}

func stringField(payload map[string]any, key string) string {
	switch typed := payload[key].(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

// listField accepts both JSON arrays and form maps keyed by index.
func listField(payload map[string]any, key string) []any {
	switch typed := payload[key].(type) {
	case []any:
		return typed
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			left, lerr := strconv.Atoi(keys[i])
			right, rerr := strconv.Atoi(keys[j])
			if lerr == nil && rerr == nil {
				return left < right
			}
			return keys[i] < keys[j]
		})
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, typed[k])
		}
		return out
	default:
		return nil
	}
}
