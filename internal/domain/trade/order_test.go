package trade

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewOrder(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	items := []OrderItem{
		{ProductID: "p1", ProductName: "Laptop", Quantity: 10, UnitPrice: 25000, Total: 250000},
		{ProductID: "p2", ProductName: "Monitor", Quantity: 10, UnitPrice: 12000, Total: 120000},
	}

	t.Run("creates a pending order with totals", func(t *testing.T) {
		order, err := NewOrder("ORD-2025-0042", "c1", "Anadolu Tekstil", items, "user-1", now)

		require.NoError(t, err)
		assert.Equal(t, OrderStatusPending, order.Status)
		assert.Equal(t, 370000.0, order.Subtotal)
		assert.Equal(t, 66600.0, order.Tax)
		assert.Equal(t, 436600.0, order.Total)
		assert.Equal(t, "user-1", order.CreatedBy)
		assert.Equal(t, now, order.CreatedAt)
		assert.NoError(t, order.Validate())
	})

	t.Run("fails without customer", func(t *testing.T) {
		_, err := NewOrder("ORD-2025-0042", "", "", items, "user-1", now)
		assert.Error(t, err)
	})

	t.Run("fails without lines", func(t *testing.T) {
		_, err := NewOrder("ORD-2025-0042", "c1", "Anadolu Tekstil", nil, "user-1", now)
		assert.Error(t, err)
	})
}

func TestOrder_TransitionTo(t *testing.T) {
	now := time.Now()
	order := &Order{Status: OrderStatusPending}

	require.NoError(t, order.TransitionTo(OrderStatusConfirmed, now))
	assert.Equal(t, OrderStatusConfirmed, order.Status)
	assert.Equal(t, now, order.UpdatedAt)

	assert.Error(t, order.TransitionTo(OrderStatusDelivered, now))
	assert.Error(t, order.TransitionTo("archived", now))

	require.NoError(t, order.TransitionTo(OrderStatusCancelled, now))
	assert.Error(t, order.TransitionTo(OrderStatusProcessing, now))
}

func TestOrder_ValidateDetectsTamperedTotals(t *testing.T) {
	order, err := NewOrder("ORD-2025-0001", "c1", "Acme", []OrderItem{
		{ProductID: "p1", Quantity: 2, UnitPrice: 50, Total: 100},
	}, "u", time.Now())
	require.NoError(t, err)

	order.Total = 1
	assert.Error(t, order.Validate())
}

func TestRandomOrderNumbers(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-2025-\d{4}$`)
	gen := RandomOrderNumbers{}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		number, err := gen.Next(context.Background(), now)
		require.NoError(t, err)
		assert.Regexp(t, pattern, number)
	}
}

func TestRandomOrderNumbers_SuffixRange(t *testing.T) {
	gen := RandomOrderNumbers{}
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5000; i++ {
		number, err := gen.Next(context.Background(), now)
		require.NoError(t, err)
		suffix, err := strconv.Atoi(strings.TrimPrefix(number, "ORD-2025-"))
		require.NoError(t, err)
		assert.Less(t, suffix, RandomSuffixSpace)
		assert.GreaterOrEqual(t, suffix, 0)
	}
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-2025-0007", FormatOrderNumber(2025, 7))
	assert.Equal(t, "ORD-2025-12345", FormatOrderNumber(2025, 12345))
}
