package finance

import (
	"slices"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CollectionInvoices is the document collection holding invoices
const CollectionInvoices = "invoices"

// PaymentStatus is the settlement state of an invoice
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// PendingPaymentStatuses are the statuses of invoices still awaiting money
var PendingPaymentStatuses = []PaymentStatus{PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusOverdue}

// IsPending reports whether money is still owed
func (s PaymentStatus) IsPending() bool {
	for _, p := range PendingPaymentStatuses {
		if s == p {
			return true
		}
	}
	return false
}

// InvoiceLine is one taxed line of an invoice
type InvoiceLine struct {
	Description string  `json:"description" firestore:"description"`
	Quantity    float64 `json:"quantity" firestore:"quantity" validate:"gte=0"`
	UnitPrice   float64 `json:"unitPrice" firestore:"unitPrice"`
	Total       float64 `json:"total" firestore:"total"`
	TaxRate     float64 `json:"taxRate" firestore:"taxRate" validate:"gte=0"`
	TaxAmount   float64 `json:"taxAmount" firestore:"taxAmount"`
}

// Invoice is a bill issued for an order.
// HasAnomaly and AnomalyReason are set by an external detection process.
type Invoice struct {
	shared.DocumentID
	InvoiceNumber string        `json:"invoiceNumber" firestore:"invoiceNumber" validate:"required"`
	OrderID       string        `json:"orderId" firestore:"orderId"`
	CustomerID    string        `json:"customerId" firestore:"customerId" validate:"required"`
	CustomerName  string        `json:"customerName" firestore:"customerName"`
	Lines         []InvoiceLine `json:"lines" firestore:"lines" validate:"dive"`
	Subtotal      float64       `json:"subtotal" firestore:"subtotal"`
	TaxTotal      float64       `json:"taxTotal" firestore:"taxTotal"`
	Total         float64       `json:"total" firestore:"total"`
	PaymentStatus PaymentStatus `json:"paymentStatus" firestore:"paymentStatus" validate:"required,oneof=unpaid partial paid overdue"`
	DueDate       time.Time     `json:"dueDate" firestore:"dueDate"`
	PaidDate      *time.Time    `json:"paidDate,omitempty" firestore:"paidDate,omitempty"`
	Notes         string        `json:"notes" firestore:"notes"`
	HasAnomaly    bool          `json:"hasAnomaly,omitempty" firestore:"hasAnomaly,omitempty"`
	AnomalyReason string        `json:"anomalyReason,omitempty" firestore:"anomalyReason,omitempty"`
}

// IsPending reports whether the invoice still awaits payment
func (i *Invoice) IsPending() bool {
	return i.PaymentStatus.IsPending()
}

// Clone returns a copy that shares no memory with i
func (i Invoice) Clone() Invoice {
	i.Lines = slices.Clone(i.Lines)
	if i.PaidDate != nil {
		paid := *i.PaidDate
		i.PaidDate = &paid
	}
	return i
}

// BalanceConsistent reports whether total = subtotal + taxTotal
func (i *Invoice) BalanceConsistent() bool {
	sum := decimal.NewFromFloat(i.Subtotal).Add(decimal.NewFromFloat(i.TaxTotal))
	return sum.Equal(decimal.NewFromFloat(i.Total))
}

// IsOverdueAt reports whether a pending invoice is past its due date
func (i *Invoice) IsOverdueAt(now time.Time) bool {
	return i.IsPending() && now.After(i.DueDate)
}

// Validate checks the invoice's business rules
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return shared.NewValidationError("invoiceNumber", "invoice number cannot be empty")
	}
	if i.CustomerID == "" {
		return shared.NewValidationError("customerId", "customer cannot be empty")
	}
	switch i.PaymentStatus {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverdue:
	default:
		return shared.NewValidationError("paymentStatus", "unknown payment status")
	}
	if !i.BalanceConsistent() {
		return shared.NewValidationError("total", "total must equal subtotal plus tax total")
	}
	return nil
}
