package assistant

import (
	"strings"

	"github.com/erp/smarterp/internal/application/state"
	"github.com/erp/smarterp/internal/domain/metrics"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NoDataText stands in for the business context before the first load
const NoDataText = "No ERP data has been loaded yet."

// ContextWriter renders a state snapshot as the plain-text business
// context sent along with prompts. Numbers use the locale's grouping.
type ContextWriter struct {
	printer *message.Printer
}

// NewContextWriter creates a writer for tag
func NewContextWriter(tag language.Tag) *ContextWriter {
	return &ContextWriter{printer: message.NewPrinter(tag)}
}

// Money formats v as a lira amount with two decimals
func (w *ContextWriter) Money(v float64) string {
	return w.printer.Sprintf("₺%v", number.Decimal(v, number.Scale(2)))
}

// Write renders snap. A snapshot that was never loaded renders as NoDataText.
func (w *ContextWriter) Write(snap state.Snapshot) string {
	if snap.LoadedAt.IsZero() {
		return NoDataText
	}
	p := w.printer
	var b strings.Builder

	p.Fprintf(&b, "PRODUCTS (%d):\n", len(snap.Products))
	for _, pr := range snap.Products {
		minLevel := "-"
		if pr.MinStockLevel != nil {
			minLevel = p.Sprintf("%d", *pr.MinStockLevel)
		}
		p.Fprintf(&b, "- %s (%s): %d units (Min: %s, Price: %s)\n", pr.Name, pr.SKU, pr.Stock, minLevel, w.Money(pr.Price))
	}
	if low := metrics.LowStock(snap.Products); len(low) > 0 {
		names := make([]string, len(low))
		for i := range low {
			names[i] = low[i].Name
		}
		p.Fprintf(&b, "Low stock: %s\n", strings.Join(names, ", "))
	}

	p.Fprintf(&b, "\nORDERS (%d):\n", len(snap.Orders))
	for _, o := range metrics.RecentOrders(snap.Orders, len(snap.Orders)) {
		p.Fprintf(&b, "- %s: %s, Status: %s, Total: %s\n", o.OrderNumber, o.CustomerName, o.Status, w.Money(o.Total))
	}

	p.Fprintf(&b, "\nINVOICES (%d):\n", len(snap.Invoices))
	for _, inv := range snap.Invoices {
		p.Fprintf(&b, "- %s: %s, Status: %s, Total: %s", inv.InvoiceNumber, inv.CustomerName, inv.PaymentStatus, w.Money(inv.Total))
		if inv.HasAnomaly {
			p.Fprintf(&b, " [ANOMALY: %s]", inv.AnomalyReason)
		}
		b.WriteByte('\n')
	}
	p.Fprintf(&b, "Pending payments: %s\n", w.Money(metrics.PendingTotal(snap.Invoices).InexactFloat64()))

	p.Fprintf(&b, "\nPAYMENTS (%d):\n", len(snap.Payments))
	for _, pay := range snap.Payments {
		p.Fprintf(&b, "- %s: %s, %s, Method: %s, Status: %s\n", pay.InvoiceNumber, pay.CustomerName, w.Money(pay.Amount), pay.PaymentMethod, pay.Status)
	}

	b.WriteString("\nKPI SUMMARY:\n")
	kpi, ok := metrics.LatestKPI(snap.KPIs)
	if !ok {
		b.WriteString("No KPI data\n")
		return b.String()
	}
	p.Fprintf(&b, "- Month: %s\n", kpi.Month)
	p.Fprintf(&b, "- Total orders: %d\n", kpi.TotalOrders)
	p.Fprintf(&b, "- Total revenue: %s\n", w.Money(kpi.TotalRevenue))
	p.Fprintf(&b, "- DSO: %v days\n", kpi.DSO)
	p.Fprintf(&b, "- Pending payments: %s\n", w.Money(kpi.PendingPayments))
	p.Fprintf(&b, "- Low stock alerts: %d\n", kpi.LowStockAlerts)
	return b.String()
}
