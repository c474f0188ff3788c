package trade

import (
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxRate is the flat tax applied to every order subtotal
var TaxRate = decimal.RequireFromString("0.18")

// LineRequest asks for quantity units of a product
type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Totals is the monetary summary of a set of lines
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// PriceLines prices each request at the product's current price.
// Requests whose product cannot be resolved are dropped. The returned
// lines keep the request order.
func PriceLines(requests []LineRequest, products map[string]*catalog.Product) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(requests))
	for _, req := range requests {
		if req.Quantity < 1 {
			return nil, shared.NewValidationError("quantity", "quantity must be at least 1")
		}
		product, ok := products[req.ProductID]
		if !ok || product == nil {
			continue
		}
		price := decimal.NewFromFloat(product.Price)
		total := price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		items = append(items, OrderItem{
			ProductID:   req.ProductID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			UnitPrice:   product.Price,
			Total:       total.InexactFloat64(),
		})
	}
	return items, nil
}

// ComputeTotals sums line totals and applies TaxRate.
// total = subtotal + round(subtotal * TaxRate, 2)
func ComputeTotals(items []OrderItem) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat(item.Total))
	}
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
