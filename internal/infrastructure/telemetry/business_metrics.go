package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LowStockCounter reports how many products are at or below their threshold
type LowStockCounter func(ctx context.Context) (int64, error)

// BusinessMetrics records order, stock and AI activity. A nil
// *BusinessMetrics records nothing.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersCreated    *Counter
	orderRevenue     *Counter
	orderTransitions *Counter
	reorderRequests  *Counter
	aiRequests       *Counter
	aiDuration       *Histogram
	lowStockProducts *Gauge

	stop     chan struct{}
	stopOnce sync.Once
	runOnce  sync.Once
}

// NewBusinessMetrics creates the business instruments on meter
func NewBusinessMetrics(meter metric.Meter, logger *zap.Logger) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{logger: logger, stop: make(chan struct{})}
	var err error
	if bm.ordersCreated, err = NewCounter(meter, "smarterp_orders_created_total", "Orders created", "{orders}"); err != nil {
		return nil, err
	}
	if bm.orderRevenue, err = NewCounter(meter, "smarterp_order_revenue_total", "Order totals in minor currency units", "{kurus}"); err != nil {
		return nil, err
	}
	if bm.orderTransitions, err = NewCounter(meter, "smarterp_order_status_changes_total", "Order status transitions", "{transitions}"); err != nil {
		return nil, err
	}
	if bm.reorderRequests, err = NewCounter(meter, "smarterp_stock_reorder_requests_total", "Stock reorder requests", "{requests}"); err != nil {
		return nil, err
	}
	if bm.aiRequests, err = NewCounter(meter, "smarterp_ai_requests_total", "Generative-language calls", "{requests}"); err != nil {
		return nil, err
	}
	if bm.aiDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "smarterp_ai_request_duration_seconds",
		Description: "Generative-language call latency",
		Unit:        "s",
		Boundaries:  AIDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.lowStockProducts, err = NewGauge(meter, "smarterp_low_stock_products", "Products at or below their minimum stock level", "{products}"); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordOrderCreated counts an order and adds its total
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, total decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.ordersCreated.Inc(ctx)
	bm.orderRevenue.Add(ctx, total.Shift(2).Round(0).IntPart())
}

// RecordOrderTransition counts a status change into status
func (bm *BusinessMetrics) RecordOrderTransition(ctx context.Context, status string) {
	if bm == nil {
		return
	}
	bm.orderTransitions.Inc(ctx, AttrOrderStatus.String(status))
}

// RecordReorderRequest counts a stock reorder request
func (bm *BusinessMetrics) RecordReorderRequest(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.reorderRequests.Inc(ctx)
}

// RecordAIRequest counts a generative-language call for feature and its latency
func (bm *BusinessMetrics) RecordAIRequest(ctx context.Context, feature string, d time.Duration, err error) {
	if bm == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	bm.aiRequests.Inc(ctx, AttrAIFeature.String(feature), AttrOutcome.String(outcome))
	bm.aiDuration.RecordDuration(ctx, d, AttrAIFeature.String(feature))
}

// StartLowStockCollection samples count every interval until Stop or ctx ends
func (bm *BusinessMetrics) StartLowStockCollection(ctx context.Context, count LowStockCounter, interval time.Duration) {
	if bm == nil || count == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	bm.runOnce.Do(func() {
		go bm.collect(ctx, count, interval)
	})
}

func (bm *BusinessMetrics) collect(ctx context.Context, count LowStockCounter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.sampleLowStock(ctx, count)
	for {
		select {
		case <-bm.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.sampleLowStock(ctx, count)
		}
	}
}

func (bm *BusinessMetrics) sampleLowStock(ctx context.Context, count LowStockCounter) {
	n, err := count(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count low stock products", zap.Error(err))
		return
	}
	bm.lowStockProducts.Record(ctx, n)
}

// Stop ends periodic collection
func (bm *BusinessMetrics) Stop() {
	if bm == nil {
		return
	}
	bm.stopOnce.Do(func() { close(bm.stop) })
}
