package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCart         OutboxAggregateType = "cart"
	AggregateSubscription OutboxAggregateType = "subscription"
	AggregateInvoice      OutboxAggregateType = "invoice"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCart,
	AggregateSubscription,
	AggregateInvoice,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType names the domain events published through the outbox.
type OutboxEventType string

const (
	EventCartCleared          OutboxEventType = "cart.cleared"
	EventSubscriptionCreated  OutboxEventType = "subscription.created"
	EventSubscriptionCanceled OutboxEventType = "subscription.canceled"
	EventInvoiceIssued        OutboxEventType = "invoice.issued"
)

var validOutboxEventTypes = []OutboxEventType{
	EventCartCleared,
	EventSubscriptionCreated,
	EventSubscriptionCanceled,
	EventInvoiceIssued,
}

// IsValid reports whether the event type is known.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
