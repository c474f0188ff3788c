package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body)
	}
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	customers := NewDomainGroup("customers", "/customers").GET("", text("customers"))
	products := NewDomainGroup("products", "/products").GET("", text("products"))

	NewRouter(engine).Register(customers, products).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/customers")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customers", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/products")
	assert.Equal(t, "products", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/customers").Code)
}

func TestRouter_Use(t *testing.T) {
	engine := gin.New()
	var order []string
	r := NewRouter(engine).Use(func(c *gin.Context) {
		order = append(order, "router")
		c.Next()
	})
	g := NewDomainGroup("orders", "/orders").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	g.GET("", func(c *gin.Context) {
		order = append(order, "handler")
		c.Status(http.StatusOK)
	})
	r.Register(g).Setup()

	serve(engine, http.MethodGet, "/api/v1/orders")
	assert.Equal(t, []string{"router", "group", "handler"}, order)
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("invoices", "/invoices")
		assert.Equal(t, "invoices", g.Name())
		assert.Equal(t, "/invoices", g.Prefix())
	})

	t.Run("every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("orders", "/orders").
			GET("/:id", text("get")).
			POST("", text("post")).
			PUT("/:id", text("put")).
			PATCH("/:id/status", text("patch")).
			DELETE("/:id", text("delete"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		tests := []struct {
			method string
			path   string
			body   string
		}{
			{http.MethodGet, "/api/v1/orders/o1", "get"},
			{http.MethodPost, "/api/v1/orders", "post"},
			{http.MethodPut, "/api/v1/orders/o1", "put"},
			{http.MethodPatch, "/api/v1/orders/o1/status", "patch"},
			{http.MethodDelete, "/api/v1/orders/o1", "delete"},
		}
		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
			assert.Equal(t, tt.body, w.Body.String())
		}
	})

	t.Run("subgroups inherit middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("events", "/events").Use(func(c *gin.Context) {
			c.Header("X-Group", "events")
			c.Next()
		})
		g.Group("replay", "/replay").POST("/orders/:id", text("replayed"))
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodPost, "/api/v1/events/replay/orders/o1")
		assert.Equal(t, "replayed", w.Body.String())
		assert.Equal(t, "events", w.Header().Get("X-Group"))
	})

	t.Run("route middleware runs before the handler", func(t *testing.T) {
		engine := gin.New()
		deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }
		NewDomainGroup("kpi", "/kpi").
			GET("", text("list")).
			POST("", deny, text("created")).
			RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/kpi").Code)
		w := serve(engine, http.MethodPost, "/api/v1/kpi")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Body.String())
	})
}
