package audit

import (
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionEvents is the append-only document collection of audit events
const CollectionEvents = "events"

// EventType is the business action an event records
type EventType string

const (
	EventOrderCreated            EventType = "orderCreated"
	EventOrderUpdated            EventType = "orderUpdated"
	EventOrderCancelled          EventType = "orderCancelled"
	EventStockChecked            EventType = "stockChecked"
	EventStockLow                EventType = "stockLow"
	EventStockOrderRequested     EventType = "stockOrderRequested"
	EventInvoiceIssued           EventType = "invoiceIssued"
	EventInvoiceUpdated          EventType = "invoiceUpdated"
	EventPaymentReceived         EventType = "paymentReceived"
	EventPaymentFailed           EventType = "paymentFailed"
	EventReminderSent            EventType = "reminderSent"
	EventNarrativeGenerated      EventType = "narrativeGenerated"
	EventNarrativeActionReviewed EventType = "narrativeActionReviewed"
)

// IsValid checks if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventOrderCreated, EventOrderUpdated, EventOrderCancelled,
		EventStockChecked, EventStockLow, EventStockOrderRequested,
		EventInvoiceIssued, EventInvoiceUpdated,
		EventPaymentReceived, EventPaymentFailed, EventReminderSent,
		EventNarrativeGenerated, EventNarrativeActionReviewed:
		return true
	}
	return false
}

// EntityType is the kind of record an event refers to
type EntityType string

const (
	EntityOrder     EntityType = "order"
	EntityInvoice   EntityType = "invoice"
	EntityPayment   EntityType = "payment"
	EntityStock     EntityType = "stock"
	EntityNarrative EntityType = "narrative"
)

// Event is an append-only audit record. Events are never updated or deleted.
type Event struct {
	shared.DocumentID
	Type        EventType      `json:"type" firestore:"type" validate:"required"`
	EntityType  EntityType     `json:"entityType" firestore:"entityType"`
	EntityID    string         `json:"entityId" firestore:"entityId"`
	UserID      string         `json:"userId" firestore:"userId"`
	UserName    string         `json:"userName" firestore:"userName"`
	Description string         `json:"description" firestore:"description"`
	Metadata    map[string]any `json:"metadata,omitempty" firestore:"metadata,omitempty"`
	Timestamp   time.Time      `json:"timestamp" firestore:"timestamp"`
}

// Validate checks the event type
func (e *Event) Validate() error {
	if !e.Type.IsValid() {
		return shared.NewValidationError("type", "unknown event type")
	}
	return nil
}
