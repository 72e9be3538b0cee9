package enums

import "fmt"

// OutboxEventType is the canonical event_type stored on outbox rows.
type OutboxEventType string

const (
	EventOrderConfirmed OutboxEventType = "order.confirmed"
	EventOrderCancelled OutboxEventType = "order.cancelled"
	EventOrderExpired   OutboxEventType = "order.expired"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderConfirmed,
	EventOrderCancelled,
	EventOrderExpired,
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts the raw string to OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	return o == AggregateOrder
}
