package finance

import (
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionPayments is the document collection holding payments
const CollectionPayments = "payments"

// PaymentMethod is how money was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheck        PaymentMethod = "check"
)

// PaymentState is the processing state of a payment
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
	PaymentStateFailed    PaymentState = "failed"
	PaymentStateRefunded  PaymentState = "refunded"
)

// Payment records money received against an invoice
type Payment struct {
	shared.DocumentID
	InvoiceID     string        `json:"invoiceId" firestore:"invoiceId" validate:"required"`
	InvoiceNumber string        `json:"invoiceNumber" firestore:"invoiceNumber"`
	CustomerID    string        `json:"customerId" firestore:"customerId"`
	CustomerName  string        `json:"customerName" firestore:"customerName"`
	Amount        float64       `json:"amount" firestore:"amount" validate:"gte=0"`
	PaymentMethod PaymentMethod `json:"paymentMethod" firestore:"paymentMethod" validate:"required,oneof=cash card bank_transfer check"`
	Status        PaymentState  `json:"status" firestore:"status" validate:"required,oneof=pending completed failed refunded"`
	TransactionID string        `json:"transactionId,omitempty" firestore:"transactionId,omitempty"`
	Notes         string        `json:"notes" firestore:"notes"`
	PaymentDate   time.Time     `json:"paymentDate" firestore:"paymentDate"`
}

// Validate checks the payment's business rules
func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return shared.NewValidationError("invoiceId", "invoice cannot be empty")
	}
	if p.Amount <= 0 {
		return shared.NewValidationError("amount", "amount must be positive")
	}
	switch p.PaymentMethod {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCheck:
	default:
		return shared.NewValidationError("paymentMethod", "unknown payment method")
	}
	switch p.Status {
	case PaymentStatePending, PaymentStateCompleted, PaymentStateFailed, PaymentStateRefunded:
	default:
		return shared.NewValidationError("status", "unknown payment status")
	}
	return nil
}
