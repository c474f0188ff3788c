package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	_, err := NewBusinessMetrics(nil, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestBusinessMetrics_Orders(t *testing.T) {
	mp, reader := newTestMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	bm.RecordOrderCreated(ctx, decimal.RequireFromString("436600.00"))
	bm.RecordOrderCreated(ctx, decimal.RequireFromString("10.505"))
	bm.RecordOrderTransition(ctx, "confirmed")
	bm.RecordReorderRequest(ctx)

	assert.Equal(t, int64(2), sumOf(t, findMetric(t, reader, "smarterp_orders_created_total")))
	assert.Equal(t, int64(43660000+1051), sumOf(t, findMetric(t, reader, "smarterp_order_revenue_total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(t, reader, "smarterp_order_status_changes_total")))
	assert.Equal(t, int64(1), sumOf(t, findMetric(t, reader, "smarterp_stock_reorder_requests_total")))
}

func TestBusinessMetrics_AIRequests(t *testing.T) {
	mp, reader := newTestMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	bm.RecordAIRequest(ctx, "chat", time.Second, nil)
	bm.RecordAIRequest(ctx, "chat", 2*time.Second, errors.New("quota"))

	requests := findMetric(t, reader, "smarterp_ai_requests_total")
	sum := requests.Data.(metricdata.Sum[int64])
	assert.Len(t, sum.DataPoints, 2, "ok and error are separate series")

	hist := findMetric(t, reader, "smarterp_ai_request_duration_seconds").Data.(metricdata.Histogram[float64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestBusinessMetrics_LowStockCollection(t *testing.T) {
	mp, reader := newTestMeter(t)
	bm, err := NewBusinessMetrics(mp.Meter("test"), nil)
	require.NoError(t, err)

	var calls atomic.Int32
	bm.StartLowStockCollection(context.Background(), func(context.Context) (int64, error) {
		calls.Add(1)
		return 3, nil
	}, time.Hour)
	defer bm.Stop()

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, 10*time.Millisecond)
	gauge := findMetric(t, reader, "smarterp_low_stock_products").Data.(metricdata.Gauge[int64])
	assert.Equal(t, int64(3), gauge.DataPoints[0].Value)

	bm.Stop()
	bm.Stop()
}

func TestBusinessMetrics_NilReceiver(t *testing.T) {
	var bm *BusinessMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		bm.RecordOrderCreated(ctx, decimal.NewFromInt(1))
		bm.RecordOrderTransition(ctx, "shipped")
		bm.RecordReorderRequest(ctx)
		bm.RecordAIRequest(ctx, "narrative", time.Second, nil)
		bm.StartLowStockCollection(ctx, nil, 0)
		bm.Stop()
	})
}
