package enums

// OutboxEventType names an event emitted through the outbox.
type OutboxEventType string

const (
	OutboxEventOrderCreated  OutboxEventType = "order.created"
	OutboxEventOrderPaid     OutboxEventType = "order.paid"
	OutboxEventOrderCanceled OutboxEventType = "order.canceled"
)

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder OutboxAggregateType = "order"
)

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}
