package domain

// Sale lifecycle event types, used as AMQP routing keys.
const (
	EventSaleCreated            = "sale.created"
	EventSaleUpdated            = "sale.updated"
	EventSaleDeleted            = "sale.deleted"
	EventSaleInstallmentUpdated = "sale.installment_updated"
)

// Event is a notification emitted after a successful write.
type Event struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	EntityID   string `json:"entityId"`
	ActorID    string `json:"actorId,omitempty"`
	OccurredAt string `json:"occurredAt"`
	Payload    any    `json:"payload,omitempty"`
}
