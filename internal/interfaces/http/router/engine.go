package router

import (
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/interfaces/http/handler"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig holds what NewEngine needs besides the API handlers
type EngineConfig struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	// Meter records HTTP metrics; nil disables them
	Meter metric.Meter
	// RateLimiter limits requests per client IP; nil disables it
	RateLimiter *middleware.RateLimiter
	// Swagger serves the API docs at /swagger
	Swagger bool
	System  *handler.SystemHandler
}

// NewEngine creates the gin engine with the global middleware chain,
// the health endpoint and, when enabled, the API docs.
//
// Middleware order:
//  1. RequestID - generate or propagate the request ID
//  2. Recovery - catch panics
//  3. Logger - log requests
//  4. Tracing and metrics
//  5. Security headers and CORS
//  6. BodyLimit - limit request body size
//  7. RateLimit - when a limiter is given
func NewEngine(cfg EngineConfig) *gin.Engine {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		cfg.Logger.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.HTTPMetrics(cfg.Meter, cfg.Logger))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	if cfg.RateLimiter != nil {
		engine.Use(middleware.RateLimit(cfg.RateLimiter))
	}

	if cfg.System != nil {
		engine.GET("/health", cfg.System.Health)
	}
	if cfg.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return engine
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}

// MountAPI registers the API routes behind authn. SpanAttributes runs
// after authn so spans carry the user.
func MountAPI(engine *gin.Engine, authn gin.HandlerFunc, h Handlers) *Router {
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(authn, middleware.SpanAttributes())
	r.Register(APIGroups(h)...)
	r.Setup()
	return r
}
