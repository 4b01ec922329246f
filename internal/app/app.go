package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"

	"github.com/lifenjoy/campaigns/config"
	"github.com/lifenjoy/campaigns/internal/database"
	"github.com/lifenjoy/campaigns/internal/domain"
	httpHandler "github.com/lifenjoy/campaigns/internal/http"
	"github.com/lifenjoy/campaigns/internal/http/middleware"
	"github.com/lifenjoy/campaigns/internal/repository"
	"github.com/lifenjoy/campaigns/internal/service"
	"github.com/lifenjoy/campaigns/pkg/cache"
	"github.com/lifenjoy/campaigns/pkg/campaign_blocks"
	"github.com/lifenjoy/campaigns/pkg/campaign_page"
	"github.com/lifenjoy/campaigns/pkg/logger"
	"github.com/lifenjoy/campaigns/pkg/tracing"
)

// redisKeyPrefix namespaces the keys written to a shared redis instance.
const redisKeyPrefix = "campaigns:"

const (
	loginMaxAttempts = 5
	loginWindow      = 5 * time.Minute
)

type contextKey string

// ShutdownContextKey holds the application shutdown context in request contexts.
const ShutdownContextKey contextKey = "shutdown_ctx"

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetCache() cache.Cache

	// Repository getters for testing
	GetCampaignRepository() domain.CampaignRepository
	GetUserRepository() domain.UserRepository
	GetSettingRepository() domain.SettingRepository

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitCache() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config   *config.Config
	logger   logger.Logger
	db       *sql.DB
	cache    cache.Cache
	s3Client domain.S3Client
	tracer   *tracing.Provider

	// Repositories
	campaignRepo domain.CampaignRepository
	userRepo     domain.UserRepository
	settingRepo  domain.SettingRepository

	// Services
	authService     *service.AuthService
	settingService  *service.SettingService
	storageService  *service.StorageService
	campaignService *service.CampaignService
	crawlerService  *service.CrawlerService
	blockRenderer   *campaign_blocks.Renderer
	loginLimiter    *service.RateLimiter

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64          // atomic counter for active HTTP requests
	requestWg       sync.WaitGroup // wait group for active requests
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithCache replaces the configured cache backend
func WithCache(c cache.Cache) AppOption {
	return func(a *App) {
		a.cache = c
	}
}

// WithS3Client replaces the S3 client built from the storage config
func WithS3Client(client domain.S3Client) AppOption {
	return func(a *App) {
		a.s3Client = client
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing and metrics exporters
func (a *App) InitTracing() error {
	provider, err := tracing.Init(&a.config.Tracing, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = provider

	if a.config.Tracing.Enabled {
		a.logger.WithField("trace_exporter", a.config.Tracing.TraceExporter).
			WithField("metrics_exporter", a.config.Tracing.MetricsExporter).
			WithField("sampling_rate", a.config.Tracing.SamplingProbability).
			Info("Tracing initialized successfully")
	}
	return nil
}

// InitDB connects to the campaigns database, creating it and its schema when missing
func (a *App) InitDB() error {
	// Skip if the database was injected
	if a.db != nil {
		return nil
	}

	dbCfg := &a.config.Database
	a.logger.WithField("host", dbCfg.Host).
		WithField("port", dbCfg.Port).
		WithField("user", dbCfg.User).
		WithField("dbname", dbCfg.DBName).
		Info("Connecting to database")

	serverDB, err := sql.Open("postgres", database.GetPostgresDSN(dbCfg))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres server: %w", err)
	}
	err = database.EnsureDatabaseExists(serverDB, dbCfg.DBName)
	serverDB.Close()
	if err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	// If tracing is enabled, wrap the postgres driver
	driverName := "postgres"
	if a.config.Tracing.Enabled {
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := sql.Open(driverName, database.GetSystemDSN(dbCfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.InitializeDatabase(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	database.ConfigurePool(db, dbCfg)

	a.db = db
	return nil
}

// InitCache selects the presigned URL cache backend
func (a *App) InitCache() error {
	// Skip if cache already set (e.g., by mock)
	if a.cache != nil {
		return nil
	}

	switch a.config.Cache.Backend {
	case "redis":
		redisCache, err := cache.NewRedisCache(context.Background(), a.config.Cache.RedisURL, redisKeyPrefix)
		if err != nil {
			return fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		a.cache = redisCache
		a.logger.Info("Using redis cache")
	case "", "memory":
		a.cache = cache.NewInMemoryCache(time.Minute)
		a.logger.Info("Using in-memory cache")
	default:
		return fmt.Errorf("unsupported cache backend: %s", a.config.Cache.Backend)
	}
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.campaignRepo = repository.NewCampaignRepository(a.db)
	a.userRepo = repository.NewUserRepository(a.db)
	a.settingRepo = repository.NewSQLSettingRepository(a.db)

	return nil
}

// InitServices initializes all application services
func (a *App) InitServices() error {
	if a.cache == nil {
		return fmt.Errorf("cache must be initialized before services")
	}

	a.settingService = service.NewSettingService(a.settingRepo, a.logger)

	if a.loginLimiter == nil {
		a.loginLimiter = service.NewRateLimiter(loginMaxAttempts, loginWindow)
	}
	authService, err := service.NewAuthService(service.AuthServiceConfig{
		Repository: a.userRepo,
		Logger:     a.logger,
		JWTSecret:  a.config.Security.JWTSecret,
		SessionTTL: a.config.Security.SessionTTL,
		DefaultAdmin: service.DefaultAdmin{
			Email:    a.config.Security.DefaultAdminEmail,
			Password: a.config.Security.DefaultAdminPassword,
			Name:     a.config.Security.DefaultAdminName,
		},
		LoginLimiter: a.loginLimiter,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}
	a.authService = authService

	if a.s3Client == nil {
		client, err := service.NewS3Client(&a.config.Storage)
		if err != nil {
			return err
		}
		a.s3Client = client
	}

	a.storageService = service.NewStorageService(service.StorageServiceConfig{
		Client:        a.s3Client,
		Bucket:        a.config.Storage.Bucket,
		PublicBaseURL: a.config.Storage.PublicBaseURL,
		PresignTTL:    a.config.Storage.PresignTTL,
		MaxUploadSize: a.config.Storage.MaxUploadSize,
		Cache:         a.cache,
		URLTTL:        a.config.Cache.URLTTL,
		Logger:        a.logger,
	})

	a.blockRenderer = campaign_blocks.NewRenderer(a.storageService,
		campaign_blocks.WithResolveTimeout(a.config.Renderer.ImageResolveTimeout),
		campaign_blocks.WithMaxParallel(a.config.Renderer.MaxParallel),
	)

	a.campaignService = service.NewCampaignService(service.CampaignServiceConfig{
		Repository: a.campaignRepo,
		Renderer:   a.blockRenderer,
		Resolver:   a.storageService,
		Logger:     a.logger,
	})

	a.crawlerService = service.NewCrawlerService(service.CrawlerServiceConfig{
		Credentials: a.settingService,
		UserAgent:   a.config.Crawler.UserAgent,
		Timeout:     a.config.Crawler.Timeout,
		Logger:      a.logger,
	})

	return nil
}

// InitHandlers registers every HTTP handler on a fresh mux
func (a *App) InitHandlers() error {
	// Create a new ServeMux to avoid route conflicts on restart
	a.mux = http.NewServeMux()

	pages, err := campaign_page.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create page renderer: %w", err)
	}

	requireAuth := middleware.RequireAuth(a.authService)

	campaignHandler := httpHandler.NewCampaignHandler(a.campaignService, requireAuth, a.logger)
	authHandler := httpHandler.NewAuthHandler(a.authService, requireAuth, a.logger)
	settingHandler := httpHandler.NewSettingHandler(a.settingService, requireAuth, a.logger)
	storageHandler := httpHandler.NewStorageHandler(a.storageService, requireAuth, a.logger)
	productHandler := httpHandler.NewProductHandler(a.crawlerService, requireAuth, a.logger)
	publicHandler := httpHandler.NewPublicHandler(a.campaignService, pages, a.config.PublicURL, a.logger)
	rootHandler := httpHandler.NewRootHandler(a.config.Server.ConsoleDir, a.logger, a.config.PublicURL, a.config.Version)

	campaignHandler.RegisterRoutes(a.mux)
	authHandler.RegisterRoutes(a.mux)
	settingHandler.RegisterRoutes(a.mux)
	storageHandler.RegisterRoutes(a.mux)
	productHandler.RegisterRoutes(a.mux)
	publicHandler.RegisterRoutes(a.mux)
	rootHandler.RegisterRoutes(a.mux)

	return nil
}

// buildHandler wraps the mux with the server middleware chain
func (a *App) buildHandler() http.Handler {
	var handler http.Handler = a.mux

	// Apply graceful shutdown middleware first (outermost)
	handler = a.gracefulShutdownMiddleware(handler)

	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
		a.logger.Info("OpenCensus tracing middleware enabled")
	}

	return middleware.CORS(a.config.Server.AllowedOrigins)(handler)
}

// Start starts the HTTP server
func (a *App) Start() error {
	handler := a.buildHandler()

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).
		WithField("public_url", a.config.PublicURL).
		Info(fmt.Sprintf("Server starting on %s", addr))

	// Create a fresh notification channel and update the server
	a.serverMu.Lock()
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})

	a.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	// Signal that the server has been created and is about to start
	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	// Signal shutdown to all components
	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources(ctx)
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		// Use the provided context deadline if it's sooner than our default timeout
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	serverShutdownDone := make(chan error, 1)
	go func() {
		a.logger.WithField("timeout", shutdownTimeout).Info("Starting HTTP server shutdown")
		serverShutdownDone <- server.Shutdown(shutdownCtx)
	}()

	requestsDone := make(chan struct{}, 1)
	go func() {
		defer close(requestsDone)

		a.logger.Info("Waiting for active requests to complete...")
		done := make(chan struct{})

		go func() {
			a.requestWg.Wait()
			close(done)
		}()

		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				a.logger.Info("All requests completed")
				return
			case <-ticker.C:
				a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Still waiting for requests to complete...")
			case <-shutdownCtx.Done():
				a.logger.WithField("active_requests", a.getActiveRequestCount()).Warn("Shutdown timeout reached, forcing shutdown")
				return
			}
		}
	}()

	var shutdownErr error

	select {
	case err := <-serverShutdownDone:
		shutdownErr = err
		a.logger.Info("HTTP server shutdown completed")
	case <-shutdownCtx.Done():
		a.logger.Warn("Shutdown timeout reached")
		shutdownErr = fmt.Errorf("shutdown timeout exceeded")
	}

	if shutdownErr == nil {
		select {
		case <-requestsDone:
		case <-time.After(2 * time.Second):
			if activeCount := a.getActiveRequestCount(); activeCount > 0 {
				a.logger.WithField("active_requests", activeCount).Warn("Some requests still active, proceeding with shutdown")
			}
		}
	}

	if cleanupErr := a.cleanupResources(ctx); cleanupErr != nil {
		a.logger.WithField("error", cleanupErr).Error("Error during resource cleanup")
		if shutdownErr == nil {
			shutdownErr = cleanupErr
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources closes the database, the cache and the trace exporters
func (a *App) cleanupResources(ctx context.Context) error {
	a.logger.Info("Cleaning up resources...")

	var firstErr error

	if a.db != nil {
		if a.config.Tracing.Enabled {
			if err := ocsql.RecordStats(a.db, 5*time.Second); err != nil {
				a.logger.WithField("error", err).Error("Failed to record final database stats for tracing")
			}
		}

		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err).Error("Error closing database connection")
			firstErr = err
		}
	}

	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.WithField("error", err).Error("Error closing cache")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			a.logger.WithField("error", err).Error("Error flushing tracing exporters")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	a.logger.Info("Resource cleanup completed")
	return firstErr
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized
// Returns true if the server started successfully, false if context expired
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting campaigns application")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitCache,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

// GetCache returns the app's cache backend
func (a *App) GetCache() cache.Cache {
	return a.cache
}

// Repository getters for testing
func (a *App) GetCampaignRepository() domain.CampaignRepository {
	return a.campaignRepo
}

func (a *App) GetUserRepository() domain.UserRepository {
	return a.userRepo
}

func (a *App) GetSettingRepository() domain.SettingRepository {
	return a.settingRepo
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout).Info("Shutdown timeout configured")
}

// GetShutdownContext returns the shutdown context for components that need to watch for shutdown
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware rejects new requests once shutdown began and
// tracks the ones in flight.
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		ctx := context.WithValue(r.Context(), ShutdownContextKey, a.shutdownCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
