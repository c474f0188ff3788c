package state

import (
	"slices"

	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/trade"
)

// SetCustomers replaces the customers
func (s *AppState) SetCustomers(items []partner.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Customers)
	s.data.Customers = slices.Clone(items)
}

// AddCustomer appends item, replacing a held record with the same id
func (s *AppState) AddCustomer(item partner.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Customers)
	s.data.Customers = upsert[partner.Customer](s.data.Customers, item)
}

// UpdateCustomer applies fn to the record with id and reports whether it was held
func (s *AppState) UpdateCustomer(id string, fn func(*partner.Customer)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Customers)
	var ok bool
	s.data.Customers, ok = update[partner.Customer](s.data.Customers, id, fn)
	return ok
}

// DeleteCustomer removes the record with id and reports whether it was held
func (s *AppState) DeleteCustomer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Customers)
	var ok bool
	s.data.Customers, ok = remove[partner.Customer](s.data.Customers, id)
	return ok
}

// SetProducts replaces the products
func (s *AppState) SetProducts(items []catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Products)
	s.data.Products = cloneAll(items)
}

// AddProduct appends item, replacing a held record with the same id
func (s *AppState) AddProduct(item catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Products)
	s.data.Products = upsert[catalog.Product](s.data.Products, item.Clone())
}

// UpdateProduct applies fn to the record with id and reports whether it was held
func (s *AppState) UpdateProduct(id string, fn func(*catalog.Product)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Products)
	var ok bool
	s.data.Products, ok = update[catalog.Product](s.data.Products, id, fn)
	return ok
}

// DeleteProduct removes the record with id and reports whether it was held
func (s *AppState) DeleteProduct(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Products)
	var ok bool
	s.data.Products, ok = remove[catalog.Product](s.data.Products, id)
	return ok
}

// SetOrders replaces the orders
func (s *AppState) SetOrders(items []trade.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Orders)
	s.data.Orders = cloneAll(items)
}

// AddOrder appends item, replacing a held record with the same id
func (s *AppState) AddOrder(item trade.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Orders)
	s.data.Orders = upsert[trade.Order](s.data.Orders, item.Clone())
}

// UpdateOrder applies fn to the record with id and reports whether it was held
func (s *AppState) UpdateOrder(id string, fn func(*trade.Order)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Orders)
	var ok bool
	s.data.Orders, ok = update[trade.Order](s.data.Orders, id, fn)
	return ok
}

// DeleteOrder removes the record with id and reports whether it was held
func (s *AppState) DeleteOrder(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Orders)
	var ok bool
	s.data.Orders, ok = remove[trade.Order](s.data.Orders, id)
	return ok
}

// SetInvoices replaces the invoices
func (s *AppState) SetInvoices(items []finance.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Invoices)
	s.data.Invoices = cloneAll(items)
}

// AddInvoice appends item, replacing a held record with the same id
func (s *AppState) AddInvoice(item finance.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Invoices)
	s.data.Invoices = upsert[finance.Invoice](s.data.Invoices, item.Clone())
}

// UpdateInvoice applies fn to the record with id and reports whether it was held
func (s *AppState) UpdateInvoice(id string, fn func(*finance.Invoice)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Invoices)
	var ok bool
	s.data.Invoices, ok = update[finance.Invoice](s.data.Invoices, id, fn)
	return ok
}

// DeleteInvoice removes the record with id and reports whether it was held
func (s *AppState) DeleteInvoice(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Invoices)
	var ok bool
	s.data.Invoices, ok = remove[finance.Invoice](s.data.Invoices, id)
	return ok
}

// SetPayments replaces the payments
func (s *AppState) SetPayments(items []finance.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Payments)
	s.data.Payments = slices.Clone(items)
}

// AddPayment appends item, replacing a held record with the same id
func (s *AppState) AddPayment(item finance.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Payments)
	s.data.Payments = upsert[finance.Payment](s.data.Payments, item)
}

// UpdatePayment applies fn to the record with id and reports whether it was held
func (s *AppState) UpdatePayment(id string, fn func(*finance.Payment)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Payments)
	var ok bool
	s.data.Payments, ok = update[finance.Payment](s.data.Payments, id, fn)
	return ok
}

// DeletePayment removes the record with id and reports whether it was held
func (s *AppState) DeletePayment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Payments)
	var ok bool
	s.data.Payments, ok = remove[finance.Payment](s.data.Payments, id)
	return ok
}

// SetKPIs replaces the KPI snapshots
func (s *AppState) SetKPIs(items []report.KPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(KPIs)
	s.data.KPIs = slices.Clone(items)
}

// AddKPI appends item, replacing a held record with the same id
func (s *AppState) AddKPI(item report.KPI) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(KPIs)
	s.data.KPIs = upsert[report.KPI](s.data.KPIs, item)
}

// UpdateKPI applies fn to the record with id and reports whether it was held
func (s *AppState) UpdateKPI(id string, fn func(*report.KPI)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(KPIs)
	var ok bool
	s.data.KPIs, ok = update[report.KPI](s.data.KPIs, id, fn)
	return ok
}

// DeleteKPI removes the record with id and reports whether it was held
func (s *AppState) DeleteKPI(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(KPIs)
	var ok bool
	s.data.KPIs, ok = remove[report.KPI](s.data.KPIs, id)
	return ok
}

// SetNarratives replaces the narratives
func (s *AppState) SetNarratives(items []report.Narrative) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Narratives)
	s.data.Narratives = cloneAll(items)
}

// AddNarrative appends item, replacing a held record with the same id
func (s *AppState) AddNarrative(item report.Narrative) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Narratives)
	s.data.Narratives = upsert[report.Narrative](s.data.Narratives, item.Clone())
}

// UpdateNarrative applies fn to the record with id and reports whether it was held
func (s *AppState) UpdateNarrative(id string, fn func(*report.Narrative)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Narratives)
	var ok bool
	s.data.Narratives, ok = update[report.Narrative](s.data.Narratives, id, fn)
	return ok
}

// DeleteNarrative removes the record with id and reports whether it was held
func (s *AppState) DeleteNarrative(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(Narratives)
	var ok bool
	s.data.Narratives, ok = remove[report.Narrative](s.data.Narratives, id)
	return ok
}
