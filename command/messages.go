package command

import (
	"strings"

	"github.com/goliatone/go-storesync/core"
)

const (
	TypeSyncOrder        = "storesync.command.sync.order"
	TypeSyncCustomer     = "storesync.command.sync.customer"
	TypeSyncSubscription = "storesync.command.sync.subscription"
)

type SyncOrderMessage struct {
	RunID core.RunID
	Event core.OrderEvent
}

func (SyncOrderMessage) Type() string { return TypeSyncOrder }

func (m SyncOrderMessage) Validate() error {
	if err := validateRunID(m.RunID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Event.ID) == "" {
		return commandValidationError("event.id", "order id is required")
	}
	return nil
}

type SyncCustomerMessage struct {
	RunID core.RunID
	Event core.CustomerEvent
}

func (SyncCustomerMessage) Type() string { return TypeSyncCustomer }

func (m SyncCustomerMessage) Validate() error {
	if err := validateRunID(m.RunID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Event.ID) == "" {
		return commandValidationError("event.id", "customer id is required")
	}
	return nil
}

type SyncSubscriptionMessage struct {
	RunID core.RunID
	Event core.SubscriptionEvent
}

func (SyncSubscriptionMessage) Type() string { return TypeSyncSubscription }

func (m SyncSubscriptionMessage) Validate() error {
	if err := validateRunID(m.RunID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Event.ID) == "" {
		return commandValidationError("event.id", "subscription id is required")
	}
	return nil
}

func validateRunID(runID core.RunID) error {
	if !runID.Valid() {
		return commandValidationError("run_id", "run id must be positive")
	}
	return nil
}
