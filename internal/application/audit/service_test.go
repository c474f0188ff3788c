package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/cache"
	"github.com/erp/smarterp/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	db     *gorm.DB
	events shared.Repository[audit.Event]
	orders shared.Repository[trade.Order]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	events := testutil.NewRepository[audit.Event](db, audit.CollectionEvents)
	orders := testutil.NewRepository[trade.Order](db, trade.CollectionOrders)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { store.Close() })

	svc := NewService(events, orders, store)
	svc.now = testutil.SteppingClock(testStart)
	return &fixture{svc: svc, db: db, events: events, orders: orders}
}

func storedOrder(t *testing.T, repo shared.Repository[trade.Order]) *trade.Order {
	t.Helper()
	items := []trade.OrderItem{{ProductID: "p1", ProductName: "Laptop", Quantity: 2, UnitPrice: 25000, Total: 50000}}
	order, err := trade.NewOrder("ORD-2025-0007", "c1", "Acme", items, "u1", testStart)
	require.NoError(t, err)
	id, err := repo.Create(context.Background(), order)
	require.NoError(t, err)
	order.ID = id
	return order
}

func TestService_Log(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Log(ctx, audit.Event{Type: audit.EventStockChecked, EntityType: audit.EntityStock, EntityID: "p1"})
	require.NoError(t, err)

	got, err := f.events.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, audit.EventStockChecked, got.Type)
	assert.True(t, got.Timestamp.After(testStart))

	_, err = f.svc.Log(ctx, audit.Event{Type: "orderShredded"})
	var ve *shared.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestService_LogOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := audit.Event{Type: audit.EventOrderCreated, EntityType: audit.EntityOrder, EntityID: "o1"}

	written, err := f.svc.LogOnce(ctx, OrderCreatedKey("o1"), ev)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = f.svc.LogOnce(ctx, OrderCreatedKey("o1"), ev)
	require.NoError(t, err)
	assert.False(t, written)

	all, err := f.svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_LogOnce_ReleasesKeyOnFailure(t *testing.T) {
	events := testutil.NewMockRepository[audit.Event](t)
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	svc := NewService(events, nil, store)

	storeErr := shared.NewRepositoryError(audit.CollectionEvents, "create", errors.New("unavailable"))
	events.On("Create", mock.Anything, mock.AnythingOfType("*audit.Event")).Return("", storeErr).Once()
	events.On("Create", mock.Anything, mock.AnythingOfType("*audit.Event")).Return("e1", nil).Once()

	ev := audit.Event{Type: audit.EventOrderCreated, EntityID: "o1"}
	written, err := svc.LogOnce(context.Background(), "k", ev)
	assert.False(t, written)
	assert.ErrorIs(t, err, storeErr)

	processed, err := store.IsProcessed(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, processed)

	written, err = svc.LogOnce(context.Background(), "k", ev)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestOrderCreatedEvent(t *testing.T) {
	order := &trade.Order{OrderNumber: "ORD-2025-0001", CustomerID: "c1", CustomerName: "Acme", Total: 436600,
		Items: []trade.OrderItem{{ProductID: "p1"}, {ProductID: "p2"}}}
	order.ID = "o1"

	ev := OrderCreatedEvent(order, Actor{ID: "u1", Name: "Ayşe"})
	assert.Equal(t, audit.EventOrderCreated, ev.Type)
	assert.Equal(t, audit.EntityOrder, ev.EntityType)
	assert.Equal(t, "o1", ev.EntityID)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, "New order created: ORD-2025-0001 - Acme - ₺436600.00", ev.Description)
	assert.Equal(t, 2, ev.Metadata["itemCount"])
}

func TestService_ReplayOrderCreated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := storedOrder(t, f.orders)

	written, err := f.svc.ReplayOrderCreated(ctx, order.ID, Actor{})
	require.NoError(t, err)
	assert.True(t, written)

	written, err = f.svc.ReplayOrderCreated(ctx, order.ID, Actor{ID: "admin"})
	require.NoError(t, err)
	assert.False(t, written)

	events, err := f.svc.ListForEntity(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "u1", events[0].UserID)

	_, err = f.svc.ReplayOrderCreated(ctx, "ghost", Actor{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_ReplayOrderCreated_AfterIdempotencyLoss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := storedOrder(t, f.orders)

	written, err := f.svc.RecordOrderCreated(ctx, order, Actor{ID: "u1"})
	require.NoError(t, err)
	require.True(t, written)

	// a restarted process starts with an empty idempotency store
	fresh := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { fresh.Close() })
	restarted := NewService(f.events, f.orders, fresh)

	written, err = restarted.ReplayOrderCreated(ctx, order.ID, Actor{ID: "admin"})
	require.NoError(t, err)
	assert.False(t, written)

	events, err := restarted.ListForEntity(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestService_List_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, typ := range []audit.EventType{audit.EventStockChecked, audit.EventStockLow, audit.EventStockOrderRequested} {
		_, err := f.svc.Log(ctx, audit.Event{Type: typ})
		require.NoError(t, err)
	}

	got, err := f.svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, audit.EventStockOrderRequested, got[0].Type)
	assert.Equal(t, audit.EventStockLow, got[1].Type)
}
