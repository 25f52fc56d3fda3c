package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipeline_backend/internal/adapters"
	"pipeline_backend/internal/adapters/storage"
	"pipeline_backend/internal/cache"
	"pipeline_backend/internal/catalog"
	catalogrepo "pipeline_backend/internal/catalog/repository"
	"pipeline_backend/internal/contracts"
	contractrepo "pipeline_backend/internal/contracts/repository"
	"pipeline_backend/internal/conversion"
	"pipeline_backend/internal/customers"
	customerrepo "pipeline_backend/internal/customers/repository"
	"pipeline_backend/internal/deals"
	dealrepo "pipeline_backend/internal/deals/repository"
	"pipeline_backend/internal/email"
	"pipeline_backend/internal/events"
	"pipeline_backend/internal/exports"
	apphttp "pipeline_backend/internal/http"
	"pipeline_backend/internal/http/router"
	"pipeline_backend/internal/leads"
	leadrepo "pipeline_backend/internal/leads/repository"
	"pipeline_backend/internal/notification"
	"pipeline_backend/internal/productsales"
	salesrepo "pipeline_backend/internal/productsales/repository"
	"pipeline_backend/internal/scheduler"
	"pipeline_backend/internal/search"
	searchsvc "pipeline_backend/internal/search/service"
	"pipeline_backend/internal/webhook"
	"pipeline_backend/migrations"
	"pipeline_backend/platform/config"
	"pipeline_backend/platform/db"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// repositories groups the persistence layer chosen by REPOSITORY_BACKEND.
type repositories struct {
	leads     leadrepo.Repository
	customers customerrepo.Repository
	catalog   catalogrepo.Repository
	deals     dealrepo.Repository
	contracts contractrepo.Repository
	sales     salesrepo.Repository
	webhooks  webhook.Store
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		leads:     leadrepo.New(pool),
		customers: customerrepo.New(pool),
		catalog:   catalogrepo.New(pool),
		deals:     dealrepo.New(pool),
		contracts: contractrepo.New(pool),
		sales:     salesrepo.New(pool),
		webhooks:  webhook.NewRepository(pool),
	}
}

func memoryRepositories() repositories {
	return repositories{
		leads:     leadrepo.NewMemory(),
		customers: customerrepo.NewMemory(),
		catalog:   catalogrepo.NewMemory(),
		deals:     dealrepo.NewMemory(),
		contracts: contractrepo.NewMemory(),
		sales:     salesrepo.NewMemory(),
		webhooks:  webhook.NewMemoryStore(),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "backend", cfg.GetRepositoryBackend())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var (
		repos  repositories
		health apphttp.HealthChecker
	)
	if cfg.GetRepositoryBackend() == config.BackendMemory {
		log.Warn("using in-memory repositories; data is lost on restart")
		repos = memoryRepositories()
	} else {
		pool := connectDatabase(ctx, cfg, log)
		defer pool.Close()

		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

		repos = postgresRepositories(pool)
		health = db.NewPoolAdapter(pool)
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	readModels, closeCache := initReadModelCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	followUps, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	exportStore := initExportStore(ctx, cfg, log)

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule, err := leads.NewModule(repos.leads, eventBus, readModels, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	customersModule := customers.NewModule(repos.customers, val, log)
	catalogModule := catalog.NewModule(repos.catalog, val, log)
	dealsModule := deals.NewModule(repos.deals, eventBus, readModels, val, cfg, log)
	contractsModule := contracts.NewModule(repos.contracts, eventBus, readModels, val, cfg, log)
	salesModule := productsales.NewModule(repos.sales, val, log)

	// Anti-corruption adapters between bounded contexts
	customerDirectory := adapters.NewCustomerDirectory(customersModule.Service())
	dealGateway := adapters.NewDealGateway(dealsModule.Service())

	dealsModule.Service().SetCustomerReader(customerDirectory)
	dealsModule.Service().SetProductReader(adapters.NewCatalogProductReader(catalogModule.Service()))
	contractsModule.Service().SetCustomerReader(customerDirectory)
	customersModule.Service().SetDealUsage(dealGateway)
	leadsModule.Service().SetCustomerProvisioner(customerDirectory)
	leadsModule.Service().SetDealOpener(dealGateway)
	if followUps != nil {
		leadsModule.Service().SetFollowUpScheduler(followUps)
	}

	conversionModule := conversion.NewModule(
		dealGateway,
		customerDirectory,
		adapters.NewContractWriter(contractsModule.Service()),
		adapters.NewSalesWriter(salesModule.Service()),
		eventBus,
		val,
		cfg,
		log,
	)

	exportsModule := exports.NewModule(exports.Sources{
		Leads:     leadsModule.Service(),
		Deals:     dealsModule.Service(),
		Customers: customersModule.Service(),
		Products:  catalogModule.Service(),
		Contracts: contractsModule.Service(),
		Sales:     salesModule.Service(),
	}, exportStore, val, log)

	searchModule := search.NewModule(searchsvc.Finders{
		Leads:     leadsModule.Service(),
		Deals:     dealsModule.Service(),
		Customers: customersModule.Service(),
		Contracts: contractsModule.Service(),
	}, val)

	webhookModule := webhook.NewModule(repos.webhooks, leadsModule.Service(), val, log)

	// Notification module subscribes to domain events and serves the live stream
	notificationModule := notification.New(email.NewSender(cfg), cfg, leadsModule.Assignees(), log)
	notificationModule.RegisterHandlers(eventBus)
	defer notificationModule.Close()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			leadsModule,
			customersModule,
			catalogModule,
			dealsModule,
			contractsModule,
			salesModule,
			conversionModule,
			exportsModule,
			searchModule,
			webhookModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Live streams never finish on their own.
		notificationModule.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) *pgxpool.Pool {
	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")
	return pool
}

func initReadModelCache(ctx context.Context, cfg config.CacheConfig, log *logger.Logger) (cache.ReadModel, func()) {
	if !cfg.IsCacheEnabled() {
		log.Info("read-model cache disabled")
		return cache.Noop{}, nil
	}

	client, err := cache.Connect(ctx, cfg.GetRedisURL())
	if err != nil {
		log.Warn("redis unavailable; read-model cache disabled", "error", err)
		return cache.Noop{}, nil
	}

	return cache.NewRedis(client, cfg.GetCacheTTL(), log), func() {
		_ = client.Close()
	}
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

// initExportStore returns nil when MinIO is not configured; exports are then
// only served inline.
func initExportStore(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) storage.ExportStore {
	if !cfg.IsMinIOEnabled() {
		log.Info("MinIO not configured; export uploads disabled")
		return nil
	}

	store, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure exports bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketExports())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "exportsBucket", cfg.GetMinioBucketExports())
	return store
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
