package catalog

import (
	"github.com/erp/smarterp/internal/domain/shared"
)

// CollectionProducts is the document collection holding products
const CollectionProducts = "products"

// Product is a sellable stock item.
type Product struct {
	shared.DocumentID
	SKU         string  `json:"sku" firestore:"sku" validate:"required,max=64"`
	Name        string  `json:"name" firestore:"name" validate:"required,max=200"`
	Description string  `json:"description" firestore:"description"`
	Price       float64 `json:"price" firestore:"price" validate:"gte=0"`
	Stock       int     `json:"stock" firestore:"stock" validate:"gte=0"`
	Category    string  `json:"category" firestore:"category"`
	// MinStockLevel is the reorder threshold. Products without one are never low on stock.
	MinStockLevel *int `json:"minStockLevel,omitempty" firestore:"minStockLevel,omitempty" validate:"omitempty,gte=0"`
}

// IsLowStock reports whether stock is at or below the product's threshold
func (p *Product) IsLowStock() bool {
	if p.MinStockLevel == nil {
		return false
	}
	return p.Stock <= *p.MinStockLevel
}

// Clone returns a copy that shares no memory with p
func (p Product) Clone() Product {
	if p.MinStockLevel != nil {
		level := *p.MinStockLevel
		p.MinStockLevel = &level
	}
	return p
}

// Shortfall returns how many units are needed to get back above the threshold
func (p *Product) Shortfall() int {
	if !p.IsLowStock() {
		return 0
	}
	return *p.MinStockLevel - p.Stock + 1
}

// Validate checks the product's business rules
func (p *Product) Validate() error {
	if p.SKU == "" {
		return shared.NewValidationError("sku", "SKU cannot be empty")
	}
	if p.Name == "" {
		return shared.NewValidationError("name", "product name cannot be empty")
	}
	if p.Price < 0 {
		return shared.NewValidationError("price", "price cannot be negative")
	}
	if p.Stock < 0 {
		return shared.NewValidationError("stock", "stock cannot be negative")
	}
	if p.MinStockLevel != nil && *p.MinStockLevel < 0 {
		return shared.NewValidationError("minStockLevel", "minimum stock level cannot be negative")
	}
	return nil
}
