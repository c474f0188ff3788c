package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
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
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/erp/smarterp/internal/infrastructure/genai"
	"github.com/erp/smarterp/internal/infrastructure/persistence"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/erp/smarterp/internal/interfaces/http/handler"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/erp/smarterp/internal/interfaces/http/router"
	"github.com/erp/smarterp/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// apiServer is the full API over PostgreSQL with development tokens
type apiServer struct {
	engine   *gin.Engine
	verifier *auth.JWTVerifier
	users    *persistence.DocumentRepository[identity.UserProfile, *identity.UserProfile]
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	testDB := NewTestDB(t)
	db := testDB.DB

	customers := persistence.NewDocumentRepository[partner.Customer](db, partner.CollectionCustomers)
	products := persistence.NewDocumentRepository[catalog.Product](db, catalog.CollectionProducts)
	orders := persistence.NewDocumentRepository[trade.Order](db, trade.CollectionOrders)
	invoices := persistence.NewDocumentRepository[finance.Invoice](db, finance.CollectionInvoices)
	payments := persistence.NewDocumentRepository[finance.Payment](db, finance.CollectionPayments)
	kpis := persistence.NewDocumentRepository[report.KPI](db, report.CollectionKPI)
	narratives := persistence.NewDocumentRepository[report.Narrative](db, report.CollectionNarratives)
	events := persistence.NewDocumentRepository[audit.Event](db, audit.CollectionEvents)
	chats := persistence.NewDocumentRepository[domainassistant.ChatSession](db, domainassistant.CollectionChats)
	users := persistence.NewDocumentRepository[identity.UserProfile](db, identity.CollectionUsers)

	processed := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { processed.Close() })
	auditSvc := auditapp.NewService(events, orders, processed)

	refresher := state.NewRefresher(state.New(), state.Sources{
		Customers: customers,
		Products:  products,
		Orders:    orders,
		Invoices:  invoices,
		Payments:  payments,
		KPIs:      kpis,
	})
	dash := dashboard.NewService(dashboard.Repositories{
		Customers:  customers,
		Products:   products,
		Orders:     orders,
		Invoices:   invoices,
		KPIs:       kpis,
		Narratives: narratives,
	})

	h := router.Handlers{
		Me:         handler.NewMeHandler(),
		Customers:  handler.NewCustomerHandler(records.NewService[partner.Customer](customers, partner.CollectionCustomers), dash),
		Products:   handler.NewProductHandler(records.NewService[catalog.Product](products, catalog.CollectionProducts), dash, stock.NewReorderService(products, auditSvc)),
		Orders:     handler.NewOrderHandler(tradeapp.NewOrderService(orders, customers, products, nil, auditSvc)),
		Invoices:   handler.NewInvoiceHandler(records.NewService[finance.Invoice](invoices, finance.CollectionInvoices), dash),
		Payments:   handler.NewPaymentHandler(records.NewService[finance.Payment](payments, finance.CollectionPayments)),
		KPIs:       handler.NewKPIHandler(records.NewService[report.KPI](kpis, report.CollectionKPI), dash),
		Narratives: handler.NewNarrativeHandler(reportapp.NewNarrativeService(narratives, refresher, genai.Disabled{}, auditSvc, nil)),
		Chat:       handler.NewChatHandler(assistant.NewService(refresher, chats, genai.Disabled{})),
		Dashboard:  handler.NewDashboardHandler(dash),
		Events:     handler.NewEventHandler(auditSvc),
	}

	verifier := auth.NewJWTVerifier(config.JWTConfig{Secret: "integration-secret", Issuer: "smarterp-test", Expiration: time.Hour})
	engine := router.NewEngine(router.EngineConfig{
		Logger: zap.NewNop(),
		System: handler.NewSystemHandler("test", map[string]handler.HealthCheck{
			"store": func(ctx context.Context) error { return testDB.SqlDB.PingContext(ctx) },
		}),
	})
	router.MountAPI(engine, middleware.Auth(verifier, users), h)

	return &apiServer{engine: engine, verifier: verifier, users: users}
}

// signIn stores a profile with roles and returns its bearer header value
func (s *apiServer) signIn(t *testing.T, email string, roles identity.Roles) string {
	t.Helper()
	require.NoError(t, s.users.Put(context.Background(), identity.ProfileKey(email), &identity.UserProfile{
		Email:       email,
		DisplayName: email,
		Roles:       roles,
	}))
	token, err := s.verifier.Issue(auth.Principal{Email: email})
	require.NoError(t, err)
	return "Bearer " + token.Token
}

func (s *apiServer) do(t *testing.T, bearer, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.PerformRequest(t, s.engine, method, path, body, "Authorization", bearer)
}

func TestAPI_Health(t *testing.T) {
	srv := newAPIServer(t)

	w := testutil.PerformRequest(t, srv.engine, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	health := testutil.DecodeData[handler.HealthResponse](t, w)
	assert.Equal(t, "ok", health.Checks["store"])
}

func TestAPI_RequiresToken(t *testing.T) {
	srv := newAPIServer(t)

	w := testutil.PerformRequest(t, srv.engine, http.MethodGet, "/api/v1/dashboard", nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)

	w = srv.do(t, "Bearer not-a-token", http.MethodGet, "/api/v1/dashboard", nil)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenInvalid)
}

func TestAPI_OrderFlow(t *testing.T) {
	srv := newAPIServer(t)
	sales := srv.signIn(t, "Sales@Example.com", identity.Roles{Sales: true})
	financeUser := srv.signIn(t, "finance@example.com", identity.Roles{Finance: true})
	admin := srv.signIn(t, "admin@example.com", identity.Roles{Admin: true})

	// sales sets up the catalog and a customer
	w := srv.do(t, sales, http.MethodPost, "/api/v1/customers", map[string]any{
		"name": "Acme", "segment": "A", "creditLimit": 50000, "riskScore": 20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customer := testutil.DecodeData[partner.Customer](t, w)

	w = srv.do(t, sales, http.MethodPost, "/api/v1/products", map[string]any{
		"sku": "LAP-01", "name": "Laptop", "price": 1000, "stock": 2, "minStockLevel": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := testutil.DecodeData[catalog.Product](t, w)

	// finance may not place orders
	order := map[string]any{
		"customerId": customer.ID,
		"items":      []any{map[string]any{"productId": product.ID, "quantity": 3}},
	}
	w = srv.do(t, financeUser, http.MethodPost, "/api/v1/orders", order)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	w = srv.do(t, sales, http.MethodPost, "/api/v1/orders", order)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeData[handler.OrderCreatedResponse](t, w)
	assert.True(t, created.AuditRecorded)
	assert.InDelta(t, 3540.0, created.Order.Total, 0.001)

	w = srv.do(t, sales, http.MethodPatch, "/api/v1/orders/"+created.ID+"/status", map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// any signed-in user sees low stock
	w = srv.do(t, financeUser, http.MethodGet, "/api/v1/products/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	low := testutil.DecodeData[[]catalog.Product](t, w)
	require.Len(t, low, 1)
	assert.Equal(t, product.ID, low[0].ID)

	// the audit trail is admin only
	w = srv.do(t, sales, http.MethodGet, "/api/v1/events", nil)
	testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)

	w = srv.do(t, admin, http.MethodGet, "/api/v1/events?entityId="+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	events := testutil.DecodeData[[]audit.Event](t, w)
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventOrderCreated, events[0].Type)

	// replaying a recorded order writes nothing
	w = srv.do(t, admin, http.MethodPost, "/api/v1/events/replay/orders/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replay := testutil.DecodeData[handler.ReplayResponse](t, w)
	assert.False(t, replay.Written)

	w = srv.do(t, sales, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := testutil.DecodeData[handler.MeResponse](t, w)
	assert.Equal(t, "Sales@Example.com", me.Email)
	assert.Equal(t, []string{"sales"}, me.Roles)
}
