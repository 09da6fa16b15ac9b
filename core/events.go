package core

import "time"

type EventKind string

const (
	EventKindOrder        EventKind = "order"
	EventKindCustomer     EventKind = "customer"
	EventKindSubscription EventKind = "subscription"
	EventKindPing         EventKind = "ping"
	EventKindUnknown      EventKind = "unknown"
)

// Payload is the parsed request body before it is narrowed into an Event.
type Payload map[string]any

// EventMeta carries the delivery headers recorded with every event.
type EventMeta struct {
	Topic      string
	DeliveryID string
	Source     string
	ReceivedAt time.Time
}

func (m EventMeta) Meta() EventMeta {
	return m
}

// Event is the tagged variant handed to a Synchronizer.
type Event interface {
	Kind() EventKind
	EntityID() string
	Meta() EventMeta
}

type LineItem struct {
	ProductID string
	SKU       string
	Name      string
	Quantity  int
	Total     string
}

type OrderEvent struct {
	EventMeta
	ID         string
	Number     string
	Status     string
	Currency   string
	Total      string
	CustomerID string
	Email      string
	LineItems  []LineItem
	Raw        Payload
}

func (e OrderEvent) Kind() EventKind  { return EventKindOrder }
func (e OrderEvent) EntityID() string { return e.ID }

type CustomerEvent struct {
	EventMeta
	ID        string
	Email     string
	FirstName string
	LastName  string
	Raw       Payload
}

func (e CustomerEvent) Kind() EventKind  { return EventKindCustomer }
func (e CustomerEvent) EntityID() string { return e.ID }

type SubscriptionEvent struct {
	EventMeta
	ID              string
	Status          string
	CustomerID      string
	ParentOrderID   string
	NextPaymentDate string
	Raw             Payload
}

func (e SubscriptionEvent) Kind() EventKind  { return EventKindSubscription }
func (e SubscriptionEvent) EntityID() string { return e.ID }

// PingEvent is sent by the platform when a webhook is first saved.
type PingEvent struct {
	EventMeta
	WebhookID string
}

func (e PingEvent) Kind() EventKind  { return EventKindPing }
func (e PingEvent) EntityID() string { return e.WebhookID }

type UnknownEvent struct {
	EventMeta
	Raw Payload
}

func (e UnknownEvent) Kind() EventKind  { return EventKindUnknown }
func (e UnknownEvent) EntityID() string { return "" }
