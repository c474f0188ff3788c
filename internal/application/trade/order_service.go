// Package trade places orders and moves them through their lifecycle.
package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrAuditNotRecorded is returned, joined with the cause, when an order was
// stored but its orderCreated event could not be written. The event can be
// replayed later from the stored order.
var ErrAuditNotRecorded = errors.New("order stored but its audit event was not recorded")

// maxProductLookups bounds concurrent product reads per order
const maxProductLookups = 8

// AuditLog is the part of the audit service the order engine writes to
type AuditLog interface {
	Log(ctx context.Context, ev audit.Event) (string, error)
	RecordOrderCreated(ctx context.Context, order *trade.Order, actor auditapp.Actor) (bool, error)
}

// OrderService handles order business operations
type OrderService struct {
	orders         shared.Repository[trade.Order]
	customers      shared.Repository[partner.Customer]
	products       shared.Repository[catalog.Product]
	numbers        trade.OrderNumberGenerator
	audit          AuditLog
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	now            func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orders shared.Repository[trade.Order],
	customers shared.Repository[partner.Customer],
	products shared.Repository[catalog.Product],
	numbers trade.OrderNumberGenerator,
	auditLog AuditLog,
) *OrderService {
	if numbers == nil {
		numbers = trade.RandomOrderNumbers{}
	}
	return &OrderService{
		orders:    orders,
		customers: customers,
		products:  products,
		numbers:   numbers,
		audit:     auditLog,
		now:       time.Now,
	}
}

// SetEventPublisher sets the publisher that receives order events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics recorder
func (s *OrderService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// CreateOrder prices the requested lines at current product prices and
// stores a pending order. Lines whose product cannot be found are dropped.
// Stock levels are not changed.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "order", "create",
		attribute.String(telemetry.SpanAttrCustomerID, in.CustomerID))
	defer span.End()

	if in.CustomerID == "" {
		return nil, shared.NewValidationError("customerId", "a customer must be selected")
	}
	if len(in.Items) == 0 {
		return nil, shared.NewValidationError("items", "order must contain at least one line")
	}
	for i, line := range in.Items {
		if line.Quantity < 1 {
			return nil, shared.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
	}

	customer, err := s.customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if customer == nil {
		return nil, shared.NewValidationError("customerId", "customer not found")
	}

	products, err := s.resolveProducts(ctx, in.Items)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	items, err := trade.PriceLines(in.Items, products)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, shared.NewValidationError("items", "none of the requested products exist")
	}

	now := s.now()
	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	order, err := trade.NewOrder(number, customer.ID, customer.Name, items, in.Actor.ID, now)
	if err != nil {
		return nil, err
	}
	order.Notes = in.Notes

	id, err := s.orders.Create(ctx, order)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	order.ID = id
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrOrderID, id),
		attribute.String(telemetry.SpanAttrOrderNumber, number),
	)

	result := &CreateOrderResult{
		ID:           id,
		OrderNumber:  number,
		Order:        order,
		DroppedLines: len(in.Items) - len(items),
	}

	log := logger.L(ctx)
	log.Info("Order created",
		zap.String("order_id", id),
		zap.String("order_number", number),
		zap.String("customer_id", customer.ID),
		zap.Int("lines", len(items)),
		zap.Int("dropped_lines", result.DroppedLines),
		zap.Float64("total", order.Total),
	)
	s.metrics.RecordOrderCreated(ctx, decimal.NewFromFloat(order.Total))

	_, auditErr := s.audit.RecordOrderCreated(ctx, order, in.Actor)
	s.publish(ctx, trade.NewOrderCreatedEvent(order))
	if auditErr != nil {
		log.Error("Order stored without its audit event",
			zap.String("order_id", id),
			zap.Error(auditErr),
		)
		telemetry.RecordError(span, auditErr)
		return result, fmt.Errorf("%w: %w", ErrAuditNotRecorded, auditErr)
	}
	return result, nil
}

// resolveProducts reads each distinct product once. Products that do not
// exist are absent from the result.
func (s *OrderService) resolveProducts(ctx context.Context, lines []trade.LineRequest) (map[string]*catalog.Product, error) {
	var (
		mu       sync.Mutex
		resolved = make(map[string]*catalog.Product, len(lines))
		seen     = make(map[string]bool, len(lines))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxProductLookups)
	for _, line := range lines {
		if seen[line.ProductID] || line.ProductID == "" {
			continue
		}
		seen[line.ProductID] = true

		productID := line.ProductID
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, productID)
			if err != nil {
				return err
			}
			if p != nil {
				mu.Lock()
				resolved[productID] = p
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// UpdateStatus moves an order to status and records an orderUpdated or
// orderCancelled event. A failed event write is logged; the status change stands.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status trade.OrderStatus, actor auditapp.Actor) (*trade.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "order", "update_status",
		attribute.String(telemetry.SpanAttrOrderID, id))
	defer span.End()

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.TransitionTo(status, s.now()); err != nil {
		return nil, err
	}

	if err := s.orders.Update(ctx, id, shared.Fields{
		"status":    string(order.Status),
		"updatedAt": order.UpdatedAt,
	}); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	eventType := audit.EventOrderUpdated
	if order.Status == trade.OrderStatusCancelled {
		eventType = audit.EventOrderCancelled
	}
	log := logger.L(ctx)
	if _, err := s.audit.Log(ctx, audit.Event{
		Type:        eventType,
		EntityType:  audit.EntityOrder,
		EntityID:    id,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: fmt.Sprintf("Order %s: %s -> %s", order.OrderNumber, previous, order.Status),
		Metadata: map[string]any{
			"orderNumber": order.OrderNumber,
			"from":        string(previous),
			"to":          string(order.Status),
		},
	}); err != nil {
		log.Error("Failed to record order status event",
			zap.String("order_id", id),
			zap.Error(err),
		)
	}

	log.Info("Order status changed",
		zap.String("order_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
	)
	s.metrics.RecordOrderTransition(ctx, string(order.Status))
	s.publish(ctx, trade.NewOrderStatusChangedEvent(order, previous))
	return order, nil
}

// GetOrder returns the order with id, or shared.ErrNotFound
func (s *OrderService) GetOrder(ctx context.Context, id string) (*trade.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

// ListOrders returns orders newest first
func (s *OrderService) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]trade.Order, error) {
	q := shared.NewQuery()
	if filter.CustomerID != "" {
		q = q.Where("customerId", shared.OpEqual, filter.CustomerID)
	}
	if filter.Status != "" {
		q = q.Where("status", shared.OpEqual, string(filter.Status))
	}
	q = q.OrderBy("createdAt", shared.Desc)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return s.orders.GetAll(ctx, q)
}

// publish hands events to the bus. Handler failures never fail the
// operation that produced the event.
func (s *OrderService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("Order event delivery failed", zap.Error(err))
	}
}
