// Package stock handles stock replenishment requests.
package stock

import (
	"context"
	"fmt"

	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AuditLog appends audit events
type AuditLog interface {
	Log(ctx context.Context, ev audit.Event) (string, error)
}

// ReorderRequest is the outcome of a reorder
type ReorderRequest struct {
	EventID       string `json:"eventId"`
	ProductID     string `json:"productId"`
	ProductName   string `json:"productName"`
	CurrentStock  int    `json:"currentStock"`
	MinStockLevel int    `json:"minStockLevel"`
	Shortfall     int    `json:"shortfall"`
}

// ReorderService records requests to replenish products. It never
// changes stock; the request is an audit event for purchasing.
type ReorderService struct {
	products shared.Repository[catalog.Product]
	audit    AuditLog
	metrics  *telemetry.BusinessMetrics
}

// NewReorderService creates a reorder service
func NewReorderService(products shared.Repository[catalog.Product], auditLog AuditLog) *ReorderService {
	return &ReorderService{products: products, audit: auditLog}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *ReorderService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// RequestReorder logs a stockOrderRequested event for the product
func (s *ReorderService) RequestReorder(ctx context.Context, productID string, actor auditapp.Actor) (*ReorderRequest, error) {
	if productID == "" {
		return nil, shared.NewValidationError("productId", "product cannot be empty")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.ErrNotFound
	}

	minLevel := 0
	if p.MinStockLevel != nil {
		minLevel = *p.MinStockLevel
	}

	id, err := s.audit.Log(ctx, audit.Event{
		Type:        audit.EventStockOrderRequested,
		EntityType:  audit.EntityStock,
		EntityID:    productID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: fmt.Sprintf("Stock order request: %s - Current: %d, Min: %d", p.Name, p.Stock, minLevel),
		Metadata: map[string]any{
			"productId":     productID,
			"productName":   p.Name,
			"currentStock":  p.Stock,
			"minStockLevel": minLevel,
		},
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordReorderRequest(ctx)

	logger.L(ctx).Info("Stock reorder requested",
		zap.String("product_id", productID),
		zap.Int("stock", p.Stock),
		zap.Int("min_stock_level", minLevel),
	)

	return &ReorderRequest{
		EventID:       id,
		ProductID:     productID,
		ProductName:   p.Name,
		CurrentStock:  p.Stock,
		MinStockLevel: minLevel,
		Shortfall:     p.Shortfall(),
	}, nil
}
