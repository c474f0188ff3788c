package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/smarterp/internal/application/assistant"
	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/application/dashboard"
	"github.com/erp/smarterp/internal/application/records"
	reportapp "github.com/erp/smarterp/internal/application/report"
	"github.com/erp/smarterp/internal/application/state"
	"github.com/erp/smarterp/internal/application/stock"
	tradeapp "github.com/erp/smarterp/internal/application/trade"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/infrastructure/auth"
	"github.com/erp/smarterp/internal/infrastructure/cache"
	"github.com/erp/smarterp/internal/infrastructure/config"
	"github.com/erp/smarterp/internal/infrastructure/event"
	"github.com/erp/smarterp/internal/infrastructure/firestore"
	"github.com/erp/smarterp/internal/infrastructure/genai"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/migration"
	"github.com/erp/smarterp/internal/infrastructure/persistence"
	"github.com/erp/smarterp/internal/infrastructure/storage"
	"github.com/erp/smarterp/internal/infrastructure/telemetry"
	"github.com/erp/smarterp/internal/interfaces/http/handler"
	"github.com/erp/smarterp/internal/interfaces/http/middleware"
	"github.com/erp/smarterp/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/erp/smarterp/docs"
)

const (
	version              = "1.0.0"
	stateRefreshInterval = 5 * time.Minute
	lowStockSampleEvery  = 5 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

//	@title			SmartERP API
//	@version		1.0
//	@description	SmartERP backend API: customers, products, orders, invoices, payments, KPI, AI narratives and the chat assistant.
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/erp/smarterp
//	@contact.email	support@erp.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Firebase ID token or development JWT. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry first, so the final logger can export over OTLP
	providers, err := telemetry.Setup(rootCtx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := bootLog
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if core := providers.LogCore(level); core != nil {
		if log, err = logger.New(logCfg, core); err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SmartERP",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Driver),
	)

	// Document store
	var (
		repos   *repositories
		closers []func() error
	)
	switch cfg.Store.Driver {
	case config.StoreDriverFirestore:
		app, err := firestore.NewApp(rootCtx, cfg.Firebase)
		if err != nil {
			log.Fatal("Failed to initialize Firebase", zap.Error(err))
		}
		client, err := firestore.NewClient(rootCtx, app)
		if err != nil {
			log.Fatal("Failed to connect to Firestore", zap.Error(err))
		}
		closers = append(closers, client.Close)
		repos = firestoreRepositories(client)
		log.Info("Firestore connected", zap.String("project", cfg.Firebase.ProjectID))
	default:
		db := openDatabase(cfg, providers, log)
		closers = append(closers, db.Close)
		repos = sqlRepositories(db.DB)
	}
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Error("Error closing document store", zap.Error(err))
			}
		}
	}()

	// Redis backs the idempotency store and the order sequence
	cacheFactory := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	redisClient, err := cacheFactory.Connect(rootCtx)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cacheFactory.Close(); err != nil {
			log.Error("Error closing cache", zap.Error(err))
		}
	}()

	// Client state kept in step with the store and the order engine
	appState := state.New()
	refresher := state.NewRefresher(appState, state.Sources{
		Customers:  repos.customers,
		Products:   repos.products,
		Orders:     repos.orders,
		Invoices:   repos.invoices,
		Payments:   repos.payments,
		KPIs:       repos.kpis,
		Narratives: repos.narratives,
	})
	if err := refresher.Refresh(rootCtx); err != nil {
		log.Warn("Initial state load incomplete", zap.Error(err))
	}
	go refresher.Run(rootCtx, stateRefreshInterval)

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(state.NewOrderEventHandler(appState))
	if err := eventBus.Start(rootCtx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	auditService := auditapp.NewService(repos.events, repos.orders, cacheFactory.IdempotencyStore())
	dash := dashboard.NewService(dashboard.Repositories{
		Customers:  repos.customers,
		Products:   repos.products,
		Orders:     repos.orders,
		Invoices:   repos.invoices,
		KPIs:       repos.kpis,
		Narratives: repos.narratives,
	})

	businessMetrics, err := telemetry.NewBusinessMetrics(providers.Meter(), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	businessMetrics.StartLowStockCollection(rootCtx, dash.CountLowStock, lowStockSampleEvery)
	defer businessMetrics.Stop()

	orderService := tradeapp.NewOrderService(repos.orders, repos.customers, repos.products, cacheFactory.OrderNumbers(), auditService)
	orderService.SetEventPublisher(eventBus)
	orderService.SetBusinessMetrics(businessMetrics)

	reorderService := stock.NewReorderService(repos.products, auditService)
	reorderService.SetBusinessMetrics(businessMetrics)

	chatGenerator, err := genai.New(rootCtx, cfg.GenAI, genai.ChatParams(cfg.GenAI))
	if err != nil {
		log.Fatal("Failed to create chat generator", zap.Error(err))
	}
	reportGenerator, err := genai.New(rootCtx, cfg.GenAI, genai.ReportParams(cfg.GenAI))
	if err != nil {
		log.Fatal("Failed to create report generator", zap.Error(err))
	}
	if cfg.GenAI.APIKey == "" {
		log.Warn("No generative-language API key; chat and narratives will fail")
	}

	archive, err := storage.NewS3Archive(rootCtx, cfg.S3, log)
	if err != nil {
		log.Fatal("Failed to create narrative archive", zap.Error(err))
	}
	if archive != nil {
		if err := archive.EnsureBucket(rootCtx); err != nil {
			log.Warn("Narrative archive bucket unavailable", zap.String("bucket", cfg.S3.Bucket), zap.Error(err))
		}
	}

	var narrativeArchive reportapp.Archive
	if archive != nil {
		narrativeArchive = archive
	}
	narrativeService := reportapp.NewNarrativeService(repos.narratives, refresher, reportGenerator, auditService, narrativeArchive)
	narrativeService.SetBusinessMetrics(businessMetrics)

	chatService := assistant.NewService(refresher, repos.chats, chatGenerator)
	chatService.SetBusinessMetrics(businessMetrics)

	// HTTP handlers
	handlers := router.Handlers{
		Me:         handler.NewMeHandler(),
		Customers:  handler.NewCustomerHandler(records.NewService[partner.Customer](repos.customers, partner.CollectionCustomers), dash),
		Products:   handler.NewProductHandler(records.NewService[catalog.Product](repos.products, catalog.CollectionProducts), dash, reorderService),
		Orders:     handler.NewOrderHandler(orderService),
		Invoices:   handler.NewInvoiceHandler(records.NewService[finance.Invoice](repos.invoices, finance.CollectionInvoices), dash),
		Payments:   handler.NewPaymentHandler(records.NewService[finance.Payment](repos.payments, finance.CollectionPayments)),
		KPIs:       handler.NewKPIHandler(records.NewService[report.KPI](repos.kpis, report.CollectionKPI), dash),
		Narratives: handler.NewNarrativeHandler(narrativeService),
		Chat:       handler.NewChatHandler(chatService),
		Dashboard:  handler.NewDashboardHandler(dash),
		Events:     handler.NewEventHandler(auditService),
	}

	checks := map[string]handler.HealthCheck{"store": repos.ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	verifier, err := newVerifier(rootCtx, cfg)
	if err != nil {
		log.Fatal("Failed to create token verifier", zap.Error(err))
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer rateLimiter.Stop()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     providers.TracesEnabled(),
		},
		Meter:       providers.Meter(),
		RateLimiter: rateLimiter,
		Swagger:     cfg.Swagger.Enabled && !cfg.IsProduction(),
		System:      handler.NewSystemHandler(version, checks),
	})
	router.MountAPI(engine, middleware.Auth(verifier, repos.users), handlers)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(ctx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openDatabase connects the sql store and applies its schema when asked to
func openDatabase(cfg *config.Config, providers *telemetry.Providers, log *zap.Logger) *persistence.Database {
	gormLog := logger.NewGormLogger(log, logger.ParseGormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := telemetry.InstrumentGorm(db.DB, telemetry.DBConfig{
		Tracing:    cfg.Telemetry.DBTraceEnabled && providers.TracesEnabled(),
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBName:     cfg.Database.DBName,
	}, providers.Meter(), log); err != nil {
		log.Warn("Database instrumentation disabled", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := migrateDatabase(cfg, db, log); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	log.Info("Database connected", zap.String("dialect", cfg.Database.Dialect))
	return db
}

// migrateDatabase runs the versioned migrations on PostgreSQL and gorm's
// AutoMigrate on SQLite
func migrateDatabase(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Dialect == config.DialectSQLite {
		return db.AutoMigrate()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, log)
	if err != nil {
		return err
	}
	// not closed: closing the migrator closes sqlDB as well
	return m.Up()
}

// newVerifier checks Firebase ID tokens when Firebase auth is on and local
// development tokens otherwise
func newVerifier(ctx context.Context, cfg *config.Config) (auth.TokenVerifier, error) {
	if !cfg.Firebase.AuthEnabled {
		return auth.NewJWTVerifier(cfg.JWT), nil
	}
	app, err := firestore.NewApp(ctx, cfg.Firebase)
	if err != nil {
		return nil, err
	}
	return auth.NewFirebaseVerifier(ctx, app)
}
