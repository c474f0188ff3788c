package router

import (
	"github.com/erp/smarterp/internal/domain/identity"
	"github.com/erp/smarterp/internal/interfaces/http/handler"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
)

// Handlers are the API endpoints mounted by APIGroups
type Handlers struct {
	Me         *handler.MeHandler
	Customers  *handler.CustomerHandler
	Products   *handler.ProductHandler
	Orders     *handler.OrderHandler
	Invoices   *handler.InvoiceHandler
	Payments   *handler.PaymentHandler
	KPIs       *handler.KPIHandler
	Narratives *handler.NarrativeHandler
	Chat       *handler.ChatHandler
	Dashboard  *handler.DashboardHandler
	Events     *handler.EventHandler
}

// APIGroups builds the route groups of the API. Every route requires a
// signed-in user; the Router adds authentication in front of them.
func APIGroups(h Handlers) []RouteRegistrar {
	sales := middleware.RequireRole(identity.RoleSales)
	finance := middleware.RequireRole(identity.RoleFinance)
	admin := middleware.RequireRole(identity.RoleAdmin)

	me := NewDomainGroup("me", "/me").
		GET("", h.Me.Get)

	customers := NewDomainGroup("customers", "/customers").Use(sales).
		GET("", h.Customers.List).
		POST("", h.Customers.Create).
		GET("/:id", h.Customers.Get).
		PUT("/:id", h.Customers.Update).
		DELETE("/:id", h.Customers.Delete).
		GET("/:id/orders", h.Customers.Orders)

	// low stock is on the dashboard of every user
	products := NewDomainGroup("products", "/products").
		GET("", sales, h.Products.List).
		POST("", sales, h.Products.Create).
		GET("/low-stock", h.Products.LowStock).
		GET("/:id", sales, h.Products.Get).
		PUT("/:id", sales, h.Products.Update).
		DELETE("/:id", sales, h.Products.Delete).
		POST("/:id/reorder", sales, h.Products.Reorder)

	orders := NewDomainGroup("orders", "/orders").Use(sales).
		GET("", h.Orders.List).
		POST("", h.Orders.Create).
		GET("/:id", h.Orders.Get).
		PATCH("/:id/status", h.Orders.UpdateStatus)

	invoices := NewDomainGroup("invoices", "/invoices").Use(finance).
		GET("", h.Invoices.List).
		POST("", h.Invoices.Create).
		GET("/pending", h.Invoices.Pending).
		GET("/:id", h.Invoices.Get).
		PUT("/:id", h.Invoices.Update)

	payments := NewDomainGroup("payments", "/payments").Use(finance).
		GET("", h.Payments.List).
		POST("", h.Payments.Create).
		GET("/:id", h.Payments.Get)

	kpis := NewDomainGroup("kpi", "/kpi").
		GET("", h.KPIs.List).
		POST("", admin, h.KPIs.Create).
		GET("/latest", h.KPIs.Latest)

	narratives := NewDomainGroup("narratives", "/narratives").
		GET("", h.Narratives.List).
		GET("/latest", h.Narratives.Latest).
		POST("/generate", h.Narratives.Generate).
		GET("/:id", h.Narratives.Get).
		POST("/:id/review", h.Narratives.Review)

	chat := NewDomainGroup("chat", "/chat").
		GET("", h.Chat.History).
		POST("", h.Chat.Ask)

	dashboard := NewDomainGroup("dashboard", "/dashboard").
		GET("", h.Dashboard.Summary)

	events := NewDomainGroup("events", "/events").Use(admin).
		GET("", h.Events.List).
		POST("/replay/orders/:id", h.Events.ReplayOrderCreated)

	return []RouteRegistrar{
		me, customers, products, orders, invoices, payments,
		kpis, narratives, chat, dashboard, events,
	}
}
