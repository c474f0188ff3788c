package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/erp/smarterp/internal/domain/identity"
	"github.com/erp/smarterp/internal/infrastructure/auth"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/erp/smarterp/internal/interfaces/http/handler"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/erp/smarterp/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// signIn stands in for token verification. A nil profile is rejected.
func signIn(profile *identity.UserProfile) gin.HandlerFunc {
	return func(c *gin.Context) {
		if profile == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(dto.ErrCodeUnauthorized, "Missing bearer token"))
			return
		}
		c.Set(middleware.PrincipalKey, &auth.Principal{UID: "u1", Email: profile.Email, Name: "Ayşe"})
		c.Set(middleware.ProfileKey, profile)
		c.Next()
	}
}

// handlers have no services behind them; only requests stopped by
// middleware may reach them.
func handlers() Handlers {
	return Handlers{
		Me:         handler.NewMeHandler(),
		Customers:  handler.NewCustomerHandler(nil, nil),
		Products:   handler.NewProductHandler(nil, nil, nil),
		Orders:     handler.NewOrderHandler(nil),
		Invoices:   handler.NewInvoiceHandler(nil, nil),
		Payments:   handler.NewPaymentHandler(nil),
		KPIs:       handler.NewKPIHandler(nil, nil),
		Narratives: handler.NewNarrativeHandler(nil),
		Chat:       handler.NewChatHandler(nil),
		Dashboard:  handler.NewDashboardHandler(nil),
		Events:     handler.NewEventHandler(nil),
	}
}

func newAPI(t *testing.T, profile *identity.UserProfile, cfg EngineConfig) *gin.Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.System == nil {
		cfg.System = handler.NewSystemHandler("test", nil)
	}
	engine := NewEngine(cfg)
	MountAPI(engine, signIn(profile), handlers())
	return engine
}

func profileWith(roles identity.Roles) *identity.UserProfile {
	return &identity.UserProfile{Email: "ayse@example.com", DisplayName: "Ayşe Yılmaz", Roles: roles}
}

func TestAPIGroups_Routes(t *testing.T) {
	engine := newAPI(t, nil, EngineConfig{})

	var got []string
	for _, r := range engine.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}

	want := []string{
		"GET /health",
		"GET /api/v1/me",
		"GET /api/v1/customers",
		"POST /api/v1/customers",
		"GET /api/v1/customers/:id",
		"PUT /api/v1/customers/:id",
		"DELETE /api/v1/customers/:id",
		"GET /api/v1/customers/:id/orders",
		"GET /api/v1/products",
		"POST /api/v1/products",
		"GET /api/v1/products/low-stock",
		"GET /api/v1/products/:id",
		"PUT /api/v1/products/:id",
		"DELETE /api/v1/products/:id",
		"POST /api/v1/products/:id/reorder",
		"GET /api/v1/orders",
		"POST /api/v1/orders",
		"GET /api/v1/orders/:id",
		"PATCH /api/v1/orders/:id/status",
		"GET /api/v1/invoices",
		"POST /api/v1/invoices",
		"GET /api/v1/invoices/pending",
		"GET /api/v1/invoices/:id",
		"PUT /api/v1/invoices/:id",
		"GET /api/v1/payments",
		"POST /api/v1/payments",
		"GET /api/v1/payments/:id",
		"GET /api/v1/kpi",
		"POST /api/v1/kpi",
		"GET /api/v1/kpi/latest",
		"GET /api/v1/narratives",
		"GET /api/v1/narratives/latest",
		"POST /api/v1/narratives/generate",
		"GET /api/v1/narratives/:id",
		"POST /api/v1/narratives/:id/review",
		"GET /api/v1/chat",
		"POST /api/v1/chat",
		"GET /api/v1/dashboard",
		"GET /api/v1/events",
		"POST /api/v1/events/replay/orders/:id",
	}
	assert.ElementsMatch(t, want, got)
}

func TestAPIGroups_RoleGating(t *testing.T) {
	sales := profileWith(identity.Roles{Sales: true})
	financeOnly := profileWith(identity.Roles{Finance: true})
	none := profileWith(identity.Roles{})

	tests := []struct {
		name    string
		profile *identity.UserProfile
		method  string
		path    string
	}{
		{"sales cannot list invoices", sales, http.MethodGet, "/api/v1/invoices"},
		{"sales cannot list pending invoices", sales, http.MethodGet, "/api/v1/invoices/pending"},
		{"sales cannot record payments", sales, http.MethodPost, "/api/v1/payments"},
		{"finance cannot list customers", financeOnly, http.MethodGet, "/api/v1/customers"},
		{"finance cannot place orders", financeOnly, http.MethodPost, "/api/v1/orders"},
		{"finance cannot reorder stock", financeOnly, http.MethodPost, "/api/v1/products/p1/reorder"},
		{"no role cannot read a product", none, http.MethodGet, "/api/v1/products/p1"},
		{"sales cannot store KPIs", sales, http.MethodPost, "/api/v1/kpi"},
		{"sales cannot read the audit log", sales, http.MethodGet, "/api/v1/events"},
		{"finance cannot replay events", financeOnly, http.MethodPost, "/api/v1/events/replay/orders/o1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newAPI(t, tt.profile, EngineConfig{})
			w := testutil.PerformRequest(t, engine, tt.method, tt.path, nil)
			testutil.AssertErrorResponse(t, w, http.StatusForbidden, dto.ErrCodeForbidden)
		})
	}
}

func TestAPIGroups_RequiresSignIn(t *testing.T) {
	engine := newAPI(t, nil, EngineConfig{})

	for _, path := range []string{"/api/v1/me", "/api/v1/dashboard", "/api/v1/chat"} {
		w := testutil.PerformRequest(t, engine, http.MethodGet, path, nil)
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	}

	w := testutil.PerformRequest(t, engine, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIGroups_Me(t *testing.T) {
	engine := newAPI(t, profileWith(identity.Roles{Sales: true, Finance: true}), EngineConfig{})

	w := testutil.PerformRequest(t, engine, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, w.Code)

	me := testutil.DecodeData[handler.MeResponse](t, w)
	assert.Equal(t, "u1", me.UID)
	assert.Equal(t, "ayse@example.com", me.Email)
	assert.Equal(t, "Ayşe Yılmaz", me.DisplayName)
	assert.Equal(t, []string{"sales", "finance"}, me.Roles)
}

func TestNewEngine(t *testing.T) {
	t.Run("sets a request ID", func(t *testing.T) {
		engine := newAPI(t, nil, EngineConfig{})
		w := testutil.PerformRequest(t, engine, http.MethodGet, "/health", nil)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("swagger is off unless enabled", func(t *testing.T) {
		engine := newAPI(t, nil, EngineConfig{})
		w := testutil.PerformRequest(t, engine, http.MethodGet, "/swagger/index.html", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rate limits per client", func(t *testing.T) {
		limiter := middleware.NewRateLimiter(1, time.Minute)
		t.Cleanup(limiter.Stop)
		engine := newAPI(t, nil, EngineConfig{RateLimiter: limiter})

		assert.Equal(t, http.StatusOK, testutil.PerformRequest(t, engine, http.MethodGet, "/health", nil).Code)
		w := testutil.PerformRequest(t, engine, http.MethodGet, "/health", nil)
		testutil.AssertErrorResponse(t, w, http.StatusTooManyRequests, dto.ErrCodeRateLimited)
	})

	t.Run("recovers from panics", func(t *testing.T) {
		engine := NewEngine(EngineConfig{Logger: zap.NewNop()})
		engine.GET("/boom", func(*gin.Context) { panic("boom") })

		w := testutil.PerformRequest(t, engine, http.MethodGet, "/boom", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
