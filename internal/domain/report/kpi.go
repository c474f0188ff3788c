package report

import (
	"regexp"

	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionKPI is the document collection holding monthly KPI snapshots
const CollectionKPI = "kpi"

var monthKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// KPI is a precomputed snapshot for one calendar month
type KPI struct {
	shared.DocumentID
	// Month is the period key, "YYYY-MM". Keys sort chronologically.
	Month             string  `json:"month" firestore:"month" validate:"required"`
	TotalOrders       int     `json:"totalOrders" firestore:"totalOrders" validate:"gte=0"`
	TotalRevenue      float64 `json:"totalRevenue" firestore:"totalRevenue"`
	AverageOrderValue float64 `json:"averageOrderValue" firestore:"averageOrderValue"`
	DSO               float64 `json:"dso" firestore:"dso"`
	StockRiskItems    int     `json:"stockRiskItems" firestore:"stockRiskItems"`
	PendingPayments   float64 `json:"pendingPayments" firestore:"pendingPayments"`
	CustomerCount     int     `json:"customerCount" firestore:"customerCount"`
	LowStockAlerts    int     `json:"lowStockAlerts" firestore:"lowStockAlerts"`
}

// ValidMonthKey reports whether key has the form YYYY-MM
func ValidMonthKey(key string) bool {
	return monthKeyPattern.MatchString(key)
}

// Validate checks the month key
func (k *KPI) Validate() error {
	if !ValidMonthKey(k.Month) {
		return shared.NewValidationError("month", "month must have the form YYYY-MM")
	}
	return nil
}
