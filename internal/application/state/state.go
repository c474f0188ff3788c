// Package state holds the process-wide view of the business data that the
// AI features and the dashboard read from. It is owned by the composition
// root and passed explicitly; there is no package-level instance.
package state

import (
	"slices"
	"sync"
	"time"

	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/identity"
	"github.com/erp/smarterp/internal/domain/metrics"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
)

// Collection names a collection held by the state
type Collection string

const (
	Customers  Collection = partner.CollectionCustomers
	Products   Collection = catalog.CollectionProducts
	Orders     Collection = trade.CollectionOrders
	Invoices   Collection = finance.CollectionInvoices
	Payments   Collection = finance.CollectionPayments
	KPIs       Collection = report.CollectionKPI
	Narratives Collection = report.CollectionNarratives
)

// Snapshot is a copy of the state. Mutating it does not affect the state.
type Snapshot struct {
	Customers  []partner.Customer
	Products   []catalog.Product
	Orders     []trade.Order
	Invoices   []finance.Invoice
	Payments   []finance.Payment
	KPIs       []report.KPI
	Narratives []report.Narrative
	Loading    bool
	Error      string
	User       *identity.UserProfile
	LoadedAt   time.Time
}

// Token identifies one load of a collection. Only the newest token of a
// collection may commit.
type Token struct {
	collection Collection
	generation uint64
}

// AppState is the shared, lock-guarded business data view. Every setter
// replaces the field it names; the last write wins.
type AppState struct {
	mu          sync.RWMutex
	data        Snapshot
	generations map[Collection]uint64
}

// New creates an empty state
func New() *AppState {
	return &AppState{generations: make(map[Collection]uint64)}
}

// Snapshot returns a copy of the current state
func (s *AppState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.data
	out.Customers = slices.Clone(s.data.Customers)
	out.Products = cloneAll(s.data.Products)
	out.Orders = cloneAll(s.data.Orders)
	out.Invoices = cloneAll(s.data.Invoices)
	out.Payments = slices.Clone(s.data.Payments)
	out.KPIs = slices.Clone(s.data.KPIs)
	out.Narratives = cloneAll(s.data.Narratives)
	if s.data.User != nil {
		u := *s.data.User
		out.User = &u
	}
	return out
}

// Begin starts a load of c. Any token handed out earlier for c becomes
// stale, as does any token outstanding when c is mutated directly.
func (s *AppState) Begin(c Collection) Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch(c)
	return Token{collection: c, generation: s.generations[c]}
}

// touch advances the generation of c. The caller holds the write lock.
func (s *AppState) touch(c Collection) {
	s.generations[c]++
}

// Commit applies the result of the load identified by tok. A stale token is
// discarded and Commit reports false.
func (s *AppState) Commit(tok Token, apply func(*Snapshot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[tok.collection] != tok.generation {
		return false
	}
	apply(&s.data)
	return true
}

// SetLoading sets the loading flag
func (s *AppState) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Loading = loading
}

// SetError sets the last error message. An empty message clears it.
func (s *AppState) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Error = msg
}

// SetUser sets the current user profile. Nil clears it.
func (s *AppState) SetUser(user *identity.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.data.User = nil
		return
	}
	u := *user
	s.data.User = &u
}

func (s *AppState) markLoaded(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.LoadedAt = at
}

// LoadedAt returns when the last full refresh finished
func (s *AppState) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.LoadedAt
}

// LowStockProducts returns products at or below their minimum stock level
func (s *AppState) LowStockProducts() []catalog.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(metrics.LowStock(s.data.Products))
}

// PendingInvoices returns invoices still awaiting payment, earliest due first
func (s *AppState) PendingInvoices() []finance.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(metrics.PendingInvoices(s.data.Invoices))
}

// OrdersByCustomer returns the orders of one customer, newest first
func (s *AppState) OrdersByCustomer(customerID string) []trade.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(metrics.OrdersByCustomer(s.data.Orders, customerID))
}

// RecentOrders returns at most n orders, newest first
func (s *AppState) RecentOrders(n int) []trade.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(metrics.RecentOrders(s.data.Orders, n))
}

type cloner[T any] interface {
	Clone() T
}

// cloneAll copies items together with the memory each record references
func cloneAll[T cloner[T]](items []T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

// upsert replaces the record with the same id or appends it
func upsert[T any, PT shared.DocumentPtr[T]](items []T, item T) []T {
	id := PT(&item).GetID()
	if i := indexOf[T, PT](items, id); id != "" && i >= 0 {
		out := slices.Clone(items)
		out[i] = item
		return out
	}
	return append(slices.Clip(items), item)
}

// update applies fn to a copy of the record with id
func update[T any, PT shared.DocumentPtr[T]](items []T, id string, fn func(*T)) ([]T, bool) {
	i := indexOf[T, PT](items, id)
	if i < 0 {
		return items, false
	}
	out := slices.Clone(items)
	fn(&out[i])
	PT(&out[i]).SetID(id)
	return out, true
}

func remove[T any, PT shared.DocumentPtr[T]](items []T, id string) ([]T, bool) {
	i := indexOf[T, PT](items, id)
	if i < 0 {
		return items, false
	}
	return slices.Delete(slices.Clone(items), i, i+1), true
}

func indexOf[T any, PT shared.DocumentPtr[T]](items []T, id string) int {
	return slices.IndexFunc(items, func(item T) bool {
		return PT(&item).GetID() == id
	})
}
