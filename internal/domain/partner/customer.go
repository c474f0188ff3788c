package partner

import (
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionCustomers is the document collection holding customers
const CollectionCustomers = "customers"

// Segment is the customer's commercial tier
type Segment string

const (
	SegmentA Segment = "A"
	SegmentB Segment = "B"
	SegmentC Segment = "C"
)

// IsValid checks if the segment is one of A, B or C
func (s Segment) IsValid() bool {
	switch s {
	case SegmentA, SegmentB, SegmentC:
		return true
	}
	return false
}

// Customer is a buyer of products.
// Segment and RiskScore are independent descriptive attributes; neither is
// derived from the other.
type Customer struct {
	shared.DocumentID
	Name        string    `json:"name" firestore:"name" validate:"required,max=200"`
	Segment     Segment   `json:"segment" firestore:"segment" validate:"required,oneof=A B C"`
	CreditLimit float64   `json:"creditLimit" firestore:"creditLimit" validate:"gte=0"`
	RiskScore   float64   `json:"riskScore" firestore:"riskScore" validate:"gte=0,lte=100"`
	DSO         float64   `json:"dso" firestore:"dso" validate:"gte=0"`
	Email       string    `json:"email" firestore:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone" firestore:"phone"`
	Address     string    `json:"address" firestore:"address"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Validate checks the customer's business rules
func (c *Customer) Validate() error {
	if c.Name == "" {
		return shared.NewValidationError("name", "customer name cannot be empty")
	}
	if !c.Segment.IsValid() {
		return shared.NewValidationError("segment", "segment must be one of A, B, C")
	}
	if c.RiskScore < 0 || c.RiskScore > 100 {
		return shared.NewValidationError("riskScore", "risk score must be between 0 and 100")
	}
	if c.CreditLimit < 0 {
		return shared.NewValidationError("creditLimit", "credit limit cannot be negative")
	}
	return nil
}

// StampCreated sets both timestamps for a new customer
func (c *Customer) StampCreated(now time.Time) {
	c.CreatedAt = now
	c.UpdatedAt = now
}

// StampUpdated sets the update timestamp
func (c *Customer) StampUpdated(now time.Time) {
	c.UpdatedAt = now
}
