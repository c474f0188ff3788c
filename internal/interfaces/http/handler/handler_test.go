package handler

import (
	"context"
	"testing"
	"time"

	"github.com/erp/smarterp/internal/application/assistant"
	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/erp/smarterp/internal/application/records"
	reportapp "github.com/erp/smarterp/internal/application/report"
	"github.com/erp/smarterp/internal/application/state"
	"github.com/erp/smarterp/internal/application/stock"
	tradeapp "github.com/erp/smarterp/internal/application/trade"
	domainassistant "github.com/erp/smarterp/internal/domain/assistant"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/identity"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/auth"
	"github.com/erp/smarterp/internal/infrastructure/cache"
	"github.com/erp/smarterp/internal/infrastructure/persistence"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/erp/smarterp/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// staticSnapshot serves a fixed business snapshot
type staticSnapshot struct {
	snap state.Snapshot
}

func (s staticSnapshot) Current(context.Context, time.Duration) (state.Snapshot, error) {
	return s.snap, nil
}

// apiEnv is the API over an in-memory SQLite document store, signed in
// as an admin.
type apiEnv struct {
	engine     *gin.Engine
	customers  *persistence.DocumentRepository[partner.Customer, *partner.Customer]
	products   *persistence.DocumentRepository[catalog.Product, *catalog.Product]
	orders     *persistence.DocumentRepository[trade.Order, *trade.Order]
	invoices   *persistence.DocumentRepository[finance.Invoice, *finance.Invoice]
	kpis       *persistence.DocumentRepository[report.KPI, *report.KPI]
	narratives *persistence.DocumentRepository[report.Narrative, *report.Narrative]
	events     *persistence.DocumentRepository[audit.Event, *audit.Event]
	generator  *testutil.MockTextGenerator
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)

	env := &apiEnv{
		customers:  testutil.NewRepository[partner.Customer](db, partner.CollectionCustomers),
		products:   testutil.NewRepository[catalog.Product](db, catalog.CollectionProducts),
		orders:     testutil.NewRepository[trade.Order](db, trade.CollectionOrders),
		invoices:   testutil.NewRepository[finance.Invoice](db, finance.CollectionInvoices),
		kpis:       testutil.NewRepository[report.KPI](db, report.CollectionKPI),
		narratives: testutil.NewRepository[report.Narrative](db, report.CollectionNarratives),
		events:     testutil.NewRepository[audit.Event](db, audit.CollectionEvents),
		generator:  testutil.NewMockTextGenerator(t),
	}
	payments := testutil.NewRepository[finance.Payment](db, finance.CollectionPayments)
	chats := testutil.NewRepository[domainassistant.ChatSession](db, domainassistant.CollectionChats)

	processed := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { processed.Close() })
	auditSvc := auditapp.NewService(env.events, env.orders, processed)

	dash := dashboard.NewService(dashboard.Repositories{
		Customers:  env.customers,
		Products:   env.products,
		Orders:     env.orders,
		Invoices:   env.invoices,
		KPIs:       env.kpis,
		Narratives: env.narratives,
	})
	snapshots := staticSnapshot{snap: state.Snapshot{LoadedAt: testStart}}
	clock := records.WithClock(testutil.SteppingClock(testStart))

	customers := NewCustomerHandler(records.NewService[partner.Customer](env.customers, partner.CollectionCustomers, clock), dash)
	products := NewProductHandler(records.NewService[catalog.Product](env.products, catalog.CollectionProducts, clock), dash,
		stock.NewReorderService(env.products, auditSvc))
	orders := NewOrderHandler(tradeapp.NewOrderService(env.orders, env.customers, env.products, nil, auditSvc))
	invoices := NewInvoiceHandler(records.NewService[finance.Invoice](env.invoices, finance.CollectionInvoices, clock), dash)
	paymentsH := NewPaymentHandler(records.NewService[finance.Payment](payments, finance.CollectionPayments, clock))
	kpis := NewKPIHandler(records.NewService[report.KPI](env.kpis, report.CollectionKPI, clock), dash)
	narratives := NewNarrativeHandler(reportapp.NewNarrativeService(env.narratives, snapshots, env.generator, auditSvc, nil))
	chat := NewChatHandler(assistant.NewService(snapshots, chats, env.generator))
	events := NewEventHandler(auditSvc)

	engine := gin.New()
	engine.Use(middleware.RequestID(), signedIn(&identity.UserProfile{
		Email:       "ayse@example.com",
		DisplayName: "Ayşe Yılmaz",
		Roles:       identity.Roles{Admin: true},
	}))

	api := engine.Group("/api/v1")
	api.GET("/me", NewMeHandler().Get)
	api.GET("/dashboard", NewDashboardHandler(dash).Summary)

	api.GET("/customers", customers.List)
	api.POST("/customers", customers.Create)
	api.GET("/customers/:id", customers.Get)
	api.PUT("/customers/:id", customers.Update)
	api.DELETE("/customers/:id", customers.Delete)
	api.GET("/customers/:id/orders", customers.Orders)

	api.GET("/products", products.List)
	api.POST("/products", products.Create)
	api.GET("/products/low-stock", products.LowStock)
	api.GET("/products/:id", products.Get)
	api.POST("/products/:id/reorder", products.Reorder)

	api.GET("/orders", orders.List)
	api.POST("/orders", orders.Create)
	api.GET("/orders/:id", orders.Get)
	api.PATCH("/orders/:id/status", orders.UpdateStatus)

	api.GET("/invoices", invoices.List)
	api.POST("/invoices", invoices.Create)
	api.GET("/invoices/pending", invoices.Pending)
	api.GET("/payments", paymentsH.List)

	api.GET("/kpi", kpis.List)
	api.POST("/kpi", kpis.Create)
	api.GET("/kpi/latest", kpis.Latest)

	api.GET("/narratives", narratives.List)
	api.GET("/narratives/latest", narratives.Latest)
	api.POST("/narratives/generate", narratives.Generate)
	api.GET("/narratives/:id", narratives.Get)
	api.POST("/narratives/:id/review", narratives.Review)

	api.GET("/chat", chat.History)
	api.POST("/chat", chat.Ask)

	api.GET("/events", events.List)
	api.POST("/events/replay/orders/:id", events.ReplayOrderCreated)

	env.engine = engine
	return env
}

func signedIn(profile *identity.UserProfile) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, &auth.Principal{UID: "u1", Email: profile.Email, Name: "ayse"})
		c.Set(middleware.ProfileKey, profile)
		c.Next()
	}
}

func (e *apiEnv) seedCustomer(t *testing.T, name string) string {
	t.Helper()
	id, err := e.customers.Create(context.Background(), &partner.Customer{Name: name, Segment: partner.SegmentA, CreatedAt: testStart})
	require.NoError(t, err)
	return id
}

func (e *apiEnv) seedProduct(t *testing.T, p catalog.Product) string {
	t.Helper()
	id, err := e.products.Create(context.Background(), &p)
	require.NoError(t, err)
	return id
}
