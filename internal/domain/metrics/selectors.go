// Package metrics derives business aggregates from repository results.
// Every function here is pure: inputs are never mutated and equal inputs
// give equal outputs.
package metrics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// LowStock returns products at or below their own minimum stock level,
// lowest stock first. Products without a threshold are never included.
func LowStock(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, 0)
	for i := range products {
		if products[i].IsLowStock() {
			out = append(out, products[i])
		}
	}
	slices.SortStableFunc(out, func(a, b catalog.Product) int {
		return cmp.Compare(a.Stock, b.Stock)
	})
	return out
}

// PendingInvoices returns unpaid, partial and overdue invoices, earliest due first.
func PendingInvoices(invoices []finance.Invoice) []finance.Invoice {
	out := make([]finance.Invoice, 0)
	for i := range invoices {
		if invoices[i].IsPending() {
			out = append(out, invoices[i])
		}
	}
	slices.SortStableFunc(out, func(a, b finance.Invoice) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return out
}

// PendingTotal sums the totals of pending invoices
func PendingTotal(invoices []finance.Invoice) decimal.Decimal {
	sum := decimal.Zero
	for i := range invoices {
		if invoices[i].IsPending() {
			sum = sum.Add(decimal.NewFromFloat(invoices[i].Total))
		}
	}
	return sum
}

// RecentOrders returns at most n orders, newest first
func RecentOrders(orders []trade.Order, n int) []trade.Order {
	if n <= 0 {
		return []trade.Order{}
	}
	out := newestFirst(slices.Clone(orders))
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// OrdersByCustomer returns the orders of one customer, newest first
func OrdersByCustomer(orders []trade.Order, customerID string) []trade.Order {
	out := make([]trade.Order, 0)
	for i := range orders {
		if orders[i].CustomerID == customerID {
			out = append(out, orders[i])
		}
	}
	return newestFirst(out)
}

func newestFirst(orders []trade.Order) []trade.Order {
	slices.SortStableFunc(orders, func(a, b trade.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders
}

// LatestKPI returns the snapshot with the greatest month key
func LatestKPI(kpis []report.KPI) (*report.KPI, bool) {
	if len(kpis) == 0 {
		return nil, false
	}
	latest := slices.MaxFunc(kpis, func(a, b report.KPI) int {
		return strings.Compare(a.Month, b.Month)
	})
	return &latest, true
}

// LatestNarrative returns the most recently generated narrative
func LatestNarrative(narratives []report.Narrative) (*report.Narrative, bool) {
	if len(narratives) == 0 {
		return nil, false
	}
	latest := slices.MaxFunc(narratives, func(a, b report.Narrative) int {
		return a.GeneratedAt.Compare(b.GeneratedAt)
	})
	return &latest, true
}
