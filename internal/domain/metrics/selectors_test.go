package metrics

import (
	"testing"
	"time"

	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func product(id string, stock int, min *int) catalog.Product {
	return catalog.Product{DocumentID: shared.DocumentID{ID: id}, SKU: id, Name: id, Stock: stock, MinStockLevel: min}
}

func TestLowStock(t *testing.T) {
	products := []catalog.Product{
		product("ok", 50, intPtr(10)),
		product("boundary", 10, intPtr(10)),
		product("low", 2, intPtr(5)),
		product("untracked", 0, nil),
	}
	original := append([]catalog.Product(nil), products...)

	low := LowStock(products)

	require.Len(t, low, 2)
	assert.Equal(t, "low", low[0].ID)
	assert.Equal(t, "boundary", low[1].ID)
	assert.Equal(t, original, products, "input must not be mutated")
}

func TestLowStock_Empty(t *testing.T) {
	assert.Empty(t, LowStock(nil))
}

func TestPendingInvoices(t *testing.T) {
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	invoices := []finance.Invoice{
		{DocumentID: shared.DocumentID{ID: "late"}, PaymentStatus: finance.PaymentStatusOverdue, DueDate: base.AddDate(0, 0, 20), Total: 100},
		{DocumentID: shared.DocumentID{ID: "paid"}, PaymentStatus: finance.PaymentStatusPaid, DueDate: base, Total: 999},
		{DocumentID: shared.DocumentID{ID: "early"}, PaymentStatus: finance.PaymentStatusUnpaid, DueDate: base.AddDate(0, 0, 1), Total: 200},
		{DocumentID: shared.DocumentID{ID: "partial"}, PaymentStatus: finance.PaymentStatusPartial, DueDate: base.AddDate(0, 0, 5), Total: 50.5},
	}

	pending := PendingInvoices(invoices)

	require.Len(t, pending, 3)
	assert.Equal(t, "early", pending[0].ID)
	assert.Equal(t, "partial", pending[1].ID)
	assert.Equal(t, "late", pending[2].ID)
	assert.Equal(t, "late", invoices[0].ID)

	assert.Equal(t, "350.5", PendingTotal(invoices).String())
}

func orders() []trade.Order {
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	return []trade.Order{
		{DocumentID: shared.DocumentID{ID: "o1"}, CustomerID: "c1", CreatedAt: base},
		{DocumentID: shared.DocumentID{ID: "o2"}, CustomerID: "c2", CreatedAt: base.Add(2 * time.Hour)},
		{DocumentID: shared.DocumentID{ID: "o3"}, CustomerID: "c1", CreatedAt: base.Add(time.Hour)},
	}
}

func TestRecentOrders(t *testing.T) {
	input := orders()

	recent := RecentOrders(input, 2)
	require.Len(t, recent, 2)
	assert.Equal(t, "o2", recent[0].ID)
	assert.Equal(t, "o3", recent[1].ID)
	assert.Equal(t, "o1", input[0].ID, "input must not be reordered")

	assert.Len(t, RecentOrders(input, 10), 3)
	assert.Empty(t, RecentOrders(input, 0))
}

func TestOrdersByCustomer(t *testing.T) {
	byCustomer := OrdersByCustomer(orders(), "c1")

	require.Len(t, byCustomer, 2)
	assert.Equal(t, "o3", byCustomer[0].ID)
	assert.Equal(t, "o1", byCustomer[1].ID)
	assert.Empty(t, OrdersByCustomer(orders(), "nobody"))
}

func TestLatestKPI(t *testing.T) {
	t.Run("empty collection is absent, not an error", func(t *testing.T) {
		kpi, ok := LatestKPI(nil)
		assert.False(t, ok)
		assert.Nil(t, kpi)
	})

	t.Run("greatest month key wins", func(t *testing.T) {
		kpi, ok := LatestKPI([]report.KPI{{Month: "2024-12"}, {Month: "2025-02"}, {Month: "2025-01"}})
		require.True(t, ok)
		assert.Equal(t, "2025-02", kpi.Month)
	})
}

func TestLatestNarrative(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n, ok := LatestNarrative([]report.Narrative{
		{Summary: "old", GeneratedAt: base},
		{Summary: "new", GeneratedAt: base.Add(48 * time.Hour)},
	})
	require.True(t, ok)
	assert.Equal(t, "new", n.Summary)

	_, ok = LatestNarrative(nil)
	assert.False(t, ok)
}

func TestQueries(t *testing.T) {
	q := PendingInvoicesQuery()
	require.Len(t, q.Filters, 1)
	assert.Equal(t, shared.OpIn, q.Filters[0].Op)
	assert.Equal(t, []string{"unpaid", "partial", "overdue"}, q.Filters[0].Value)
	assert.Equal(t, "dueDate", q.Order.Field)

	assert.Equal(t, 1, LatestKPIQuery().Max)
	assert.Equal(t, shared.Desc, LatestKPIQuery().Order.Direction)
	assert.Equal(t, 5, RecentOrdersQuery(5).Max)
	assert.NoError(t, CustomerOrdersQuery("c1").Validate())
}
