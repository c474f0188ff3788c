// Package dashboard assembles the overview figures shown after sign-in.
// Selections are pushed down to the store through the metrics queries and
// finished with the pure metrics functions.
package dashboard

import (
	"context"

	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/metrics"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"golang.org/x/sync/errgroup"
)

// DefaultRecentOrders is the number of orders in the summary
const DefaultRecentOrders = 5

// Repositories are the collections the dashboard reads
type Repositories struct {
	Customers  shared.Repository[partner.Customer]
	Products   shared.Repository[catalog.Product]
	Orders     shared.Repository[trade.Order]
	Invoices   shared.Repository[finance.Invoice]
	KPIs       shared.Repository[report.KPI]
	Narratives shared.Repository[report.Narrative]
}

// Counts are collection sizes shown on the dashboard
type Counts struct {
	Customers       int `json:"customers"`
	Products        int `json:"products"`
	Orders          int `json:"orders"`
	LowStock        int `json:"lowStock"`
	PendingInvoices int `json:"pendingInvoices"`
}

// Summary is the full dashboard payload
type Summary struct {
	Counts          Counts            `json:"counts"`
	PendingTotal    float64           `json:"pendingTotal"`
	LowStock        []catalog.Product `json:"lowStock"`
	PendingInvoices []finance.Invoice `json:"pendingInvoices"`
	RecentOrders    []trade.Order     `json:"recentOrders"`
	LatestKPI       *report.KPI       `json:"latestKpi,omitempty"`
	LatestNarrative *report.Narrative `json:"latestNarrative,omitempty"`
}

// Service reads dashboard data
type Service struct {
	repos Repositories
}

// NewService creates a dashboard service
func NewService(repos Repositories) *Service {
	return &Service{repos: repos}
}

// LowStockProducts returns products at or below their minimum stock level,
// lowest stock first
func (s *Service) LowStockProducts(ctx context.Context) ([]catalog.Product, error) {
	products, err := s.repos.Products.GetAll(ctx, metrics.LowStockCandidatesQuery())
	if err != nil {
		return nil, err
	}
	return metrics.LowStock(products), nil
}

// CountLowStock returns the number of low-stock products
func (s *Service) CountLowStock(ctx context.Context) (int64, error) {
	low, err := s.LowStockProducts(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(low)), nil
}

// PendingInvoices returns invoices awaiting payment, earliest due first
func (s *Service) PendingInvoices(ctx context.Context) ([]finance.Invoice, error) {
	invoices, err := s.repos.Invoices.GetAll(ctx, metrics.PendingInvoicesQuery())
	if err != nil {
		return nil, err
	}
	return metrics.PendingInvoices(invoices), nil
}

// RecentOrders returns the n newest orders
func (s *Service) RecentOrders(ctx context.Context, n int) ([]trade.Order, error) {
	if n <= 0 {
		return []trade.Order{}, nil
	}
	orders, err := s.repos.Orders.GetAll(ctx, metrics.RecentOrdersQuery(n))
	if err != nil {
		return nil, err
	}
	return metrics.RecentOrders(orders, n), nil
}

// CustomerOrders returns the orders of one customer, newest first
func (s *Service) CustomerOrders(ctx context.Context, customerID string) ([]trade.Order, error) {
	if customerID == "" {
		return nil, shared.NewValidationError("customerId", "customer cannot be empty")
	}
	orders, err := s.repos.Orders.GetAll(ctx, metrics.CustomerOrdersQuery(customerID))
	if err != nil {
		return nil, err
	}
	return metrics.OrdersByCustomer(orders, customerID), nil
}

// LatestKPI returns the snapshot of the most recent month.
// It fails with shared.ErrNotFound when no snapshot exists.
func (s *Service) LatestKPI(ctx context.Context) (*report.KPI, error) {
	kpis, err := s.repos.KPIs.GetAll(ctx, metrics.LatestKPIQuery())
	if err != nil {
		return nil, err
	}
	latest, ok := metrics.LatestKPI(kpis)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

// LatestNarrative returns the most recently generated narrative.
// It fails with shared.ErrNotFound when none exists.
func (s *Service) LatestNarrative(ctx context.Context) (*report.Narrative, error) {
	narratives, err := s.repos.Narratives.GetAll(ctx, metrics.LatestNarrativeQuery())
	if err != nil {
		return nil, err
	}
	latest, ok := metrics.LatestNarrative(narratives)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

// Summary loads every dashboard figure concurrently. The first failing
// read cancels the rest and its error is returned. A missing KPI or
// narrative leaves the field empty.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var (
		out       Summary
		customers []partner.Customer
		products  []catalog.Product
		orders    []trade.Order
	)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		customers, err = s.repos.Customers.GetAll(ctx, shared.NewQuery())
		return err
	})
	g.Go(func() (err error) {
		products, err = s.repos.Products.GetAll(ctx, metrics.LowStockCandidatesQuery())
		return err
	})
	g.Go(func() (err error) {
		orders, err = s.repos.Orders.GetAll(ctx, shared.NewQuery())
		return err
	})
	g.Go(func() (err error) {
		out.PendingInvoices, err = s.PendingInvoices(ctx)
		return err
	})
	g.Go(func() error {
		kpi, err := s.LatestKPI(ctx)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}
		out.LatestKPI = kpi
		return nil
	})
	g.Go(func() error {
		n, err := s.LatestNarrative(ctx)
		if err != nil && !shared.IsNotFound(err) {
			return err
		}
		out.LatestNarrative = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.LowStock = metrics.LowStock(products)
	out.RecentOrders = metrics.RecentOrders(orders, DefaultRecentOrders)
	out.PendingTotal = metrics.PendingTotal(out.PendingInvoices).InexactFloat64()
	out.Counts = Counts{
		Customers:       len(customers),
		Products:        len(products),
		Orders:          len(orders),
		LowStock:        len(out.LowStock),
		PendingInvoices: len(out.PendingInvoices),
	}
	return &out, nil
}
