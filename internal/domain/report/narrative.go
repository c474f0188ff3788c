package report

import (
	"slices"
	"time"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionNarratives is the document collection holding narratives
const CollectionNarratives = "narratives"

// DataPoint is a labeled figure quoted by a narrative
type DataPoint struct {
	Label  string `json:"label" firestore:"label"`
	Value  string `json:"value" firestore:"value"`
	Change string `json:"change,omitempty" firestore:"change,omitempty"`
}

// Narrative is a generated natural-language summary of one period
type Narrative struct {
	shared.DocumentID
	Month              string      `json:"month" firestore:"month"`
	Summary            string      `json:"summary" firestore:"summary" validate:"required"`
	DataPoints         []DataPoint `json:"dataPoints" firestore:"dataPoints"`
	RecommendedActions []string    `json:"recommendedActions" firestore:"recommendedActions"`
	Confidence         float64     `json:"confidence" firestore:"confidence" validate:"gte=0,lte=1"`
	GeneratedAt        time.Time   `json:"generatedAt" firestore:"generatedAt"`
	CreatedBy          string      `json:"createdBy" firestore:"createdBy"`
}

// Clone returns a copy that shares no memory with n
func (n Narrative) Clone() Narrative {
	n.DataPoints = slices.Clone(n.DataPoints)
	n.RecommendedActions = slices.Clone(n.RecommendedActions)
	return n
}

// Action returns the recommended action at index
func (n *Narrative) Action(index int) (string, error) {
	if index < 0 || index >= len(n.RecommendedActions) {
		return "", shared.NewValidationError("actionIndex", "no recommended action at that index")
	}
	return n.RecommendedActions[index], nil
}

// Validate checks the narrative content
func (n *Narrative) Validate() error {
	if n.Summary == "" {
		return shared.NewValidationError("summary", "summary cannot be empty")
	}
	if n.Confidence < 0 || n.Confidence > 1 {
		return shared.NewValidationError("confidence", "confidence must be between 0 and 1")
	}
	return nil
}
