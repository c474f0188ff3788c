package metrics

import (
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/shared"
)

// The queries below push the same selections down to the store.

// LowStockCandidatesQuery orders products by stock. The per-product
// threshold cannot be expressed as one predicate, so callers still apply LowStock.
func LowStockCandidatesQuery() shared.Query {
	return shared.NewQuery().OrderBy("stock", shared.Asc)
}

// PendingInvoicesQuery selects pending invoices, earliest due first
func PendingInvoicesQuery() shared.Query {
	statuses := make([]string, len(finance.PendingPaymentStatuses))
	for i, s := range finance.PendingPaymentStatuses {
		statuses[i] = string(s)
	}
	return shared.NewQuery().
		Where("paymentStatus", shared.OpIn, statuses).
		OrderBy("dueDate", shared.Asc)
}

// RecentOrdersQuery selects the n newest orders
func RecentOrdersQuery(n int) shared.Query {
	return shared.NewQuery().OrderBy("createdAt", shared.Desc).Limit(n)
}

// CustomerOrdersQuery selects the orders of one customer, newest first
func CustomerOrdersQuery(customerID string) shared.Query {
	return shared.NewQuery().
		Where("customerId", shared.OpEqual, customerID).
		OrderBy("createdAt", shared.Desc)
}

// LatestKPIQuery selects the KPI with the greatest month key
func LatestKPIQuery() shared.Query {
	return shared.NewQuery().OrderBy("month", shared.Desc).Limit(1)
}

// LatestNarrativeQuery selects the most recently generated narrative
func LatestNarrativeQuery() shared.Query {
	return shared.NewQuery().OrderBy("generatedAt", shared.Desc).Limit(1)
}
