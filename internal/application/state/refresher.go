package state

import (
	"context"
	"errors"
	"time"

	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sources are the repositories a Refresher loads from. Nil sources are skipped.
type Sources struct {
	Customers  shared.Repository[partner.Customer]
	Products   shared.Repository[catalog.Product]
	Orders     shared.Repository[trade.Order]
	Invoices   shared.Repository[finance.Invoice]
	Payments   shared.Repository[finance.Payment]
	KPIs       shared.Repository[report.KPI]
	Narratives shared.Repository[report.Narrative]
}

// Refresher reloads the state from the store
type Refresher struct {
	state *AppState
	src   Sources
	now   func() time.Time
}

// NewRefresher creates a refresher that loads src into state
func NewRefresher(state *AppState, src Sources) *Refresher {
	return &Refresher{state: state, src: src, now: time.Now}
}

// State returns the state the refresher writes to
func (r *Refresher) State() *AppState {
	return r.state
}

// Refresh loads every collection concurrently. A failed collection keeps
// its previous contents; the others are still committed. The joined
// failures are returned and recorded as the state error.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.state.SetLoading(true)
	defer r.state.SetLoading(false)

	var g errgroup.Group
	errs := make([]error, 7)
	g.Go(func() error {
		errs[0] = load(ctx, r.state, Customers, r.src.Customers, func(d *Snapshot, v []partner.Customer) { d.Customers = v })
		return nil
	})
	g.Go(func() error {
		errs[1] = load(ctx, r.state, Products, r.src.Products, func(d *Snapshot, v []catalog.Product) { d.Products = v })
		return nil
	})
	g.Go(func() error {
		errs[2] = load(ctx, r.state, Orders, r.src.Orders, func(d *Snapshot, v []trade.Order) { d.Orders = v })
		return nil
	})
	g.Go(func() error {
		errs[3] = load(ctx, r.state, Invoices, r.src.Invoices, func(d *Snapshot, v []finance.Invoice) { d.Invoices = v })
		return nil
	})
	g.Go(func() error {
		errs[4] = load(ctx, r.state, Payments, r.src.Payments, func(d *Snapshot, v []finance.Payment) { d.Payments = v })
		return nil
	})
	g.Go(func() error {
		errs[5] = load(ctx, r.state, KPIs, r.src.KPIs, func(d *Snapshot, v []report.KPI) { d.KPIs = v })
		return nil
	})
	g.Go(func() error {
		errs[6] = load(ctx, r.state, Narratives, r.src.Narratives, func(d *Snapshot, v []report.Narrative) { d.Narratives = v })
		return nil
	})
	_ = g.Wait()

	err := errors.Join(errs...)
	if err != nil {
		r.state.SetError(err.Error())
		logger.L(ctx).Warn("State refresh incomplete", zap.Error(err))
		return err
	}
	r.state.SetError("")
	r.state.markLoaded(r.now())
	return nil
}

// load reads one collection and commits it under a fresh token. A load
// overtaken by a newer one is dropped silently.
func load[T any](ctx context.Context, s *AppState, c Collection, repo shared.Repository[T], assign func(*Snapshot, []T)) error {
	if repo == nil {
		return nil
	}
	tok := s.Begin(c)
	items, err := repo.GetAll(ctx, shared.NewQuery())
	if err != nil {
		return err
	}
	if !s.Commit(tok, func(d *Snapshot) { assign(d, items) }) {
		logger.L(ctx).Debug("Discarded stale load", zap.String("collection", string(c)))
	}
	return nil
}

// Current returns a snapshot no older than maxAge, refreshing first when
// needed. When the refresh fails the last good snapshot is returned with
// the error.
func (r *Refresher) Current(ctx context.Context, maxAge time.Duration) (Snapshot, error) {
	loaded := r.state.LoadedAt()
	if loaded.IsZero() || r.now().Sub(loaded) > maxAge {
		if err := r.Refresh(ctx); err != nil {
			return r.state.Snapshot(), err
		}
	}
	return r.state.Snapshot(), nil
}

// Run refreshes every interval until ctx is done
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.L(ctx).Error("Periodic state refresh failed", zap.Error(err))
			}
		}
	}
}
