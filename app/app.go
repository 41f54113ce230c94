package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goliatone/go-job/queue/worker"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-shipbridge/adapters/gocommand"
	"github.com/goliatone/go-shipbridge/adapters/gojob"
	"github.com/goliatone/go-shipbridge/adapters/gologger"
	"github.com/goliatone/go-shipbridge/adapters/prommetrics"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/goliatone/go-shipbridge/handlers"
	"github.com/goliatone/go-shipbridge/httpapi"
	"github.com/goliatone/go-shipbridge/inbound"
	"github.com/goliatone/go-shipbridge/providers/fluid"
	"github.com/goliatone/go-shipbridge/providers/shiphero"
	sqlstore "github.com/goliatone/go-shipbridge/store/sql"
	"github.com/goliatone/go-shipbridge/transport"
	"github.com/goliatone/go-shipbridge/webhooks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	defaultRetryDelay     = time.Second
	adminOperationTimeout = 2 * time.Minute
)

type Option func(*options)

type options struct {
	logger     core.Logger
	provider   core.LoggerProvider
	httpClient transport.HTTPDoer
	registry   *prometheus.Registry
}

// WithLogger replaces the zap logger built from config.
func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithHTTPClient is used by both outbound API clients.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// App holds the wired bridge: persistence, outbound clients, the event
// router with its worker pool, and the HTTP surface.
type App struct {
	Config   core.Config
	Logger   core.Logger
	Provider core.LoggerProvider

	DB        *persistence.Client
	Stores    *sqlstore.RepositoryFactory
	Fluid     *fluid.Client
	ShipHero  *shiphero.Client
	Webhooks  shiphero.WebhookService
	Queue     *gojob.MemoryQueue
	Router    *inbound.Router
	Workers   *gojob.WorkerPool
	Metrics   *prommetrics.Recorder
	Registry  *prometheus.Registry
	Engine    *gin.Engine
	Server    *httpapi.Server
	Commands  *gocommand.Bus

	shutdownOnce sync.Once
	shutdownErr  error
}

func New(ctx context.Context, cfg core.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	provider, logger, err := resolveLogger(cfg, o)
	if err != nil {
		return nil, err
	}

	registry := o.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	metrics := prommetrics.NewRecorder(registry)

	db, err := OpenDatabase(ctx, cfg.Database, cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
		DB:       db,
		Metrics:  metrics,
		Registry: registry,
	}

	if err := a.wire(o); err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(o options) error {
	cfg := a.Config

	companyCache, err := newCache(cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("app: company cache: %w", err)
	}
	tokenCache, err := newCache(cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("app: token cache: %w", err)
	}

	stores, err := sqlstore.NewRepositoryFactoryFromPersistence(a.DB, sqlstore.WithCompanyCache(companyCache))
	if err != nil {
		return err
	}
	a.Stores = stores

	a.Fluid = fluid.New(fluid.Config{
		BaseURL:    cfg.Fluid.BaseURL,
		Timeout:    cfg.Fluid.Timeout,
		HTTPClient: o.httpClient,
	})
	a.ShipHero = shiphero.New(shiphero.Config{
		GraphQLURL: cfg.ShipHero.GraphQLURL,
		AuthURL:    cfg.ShipHero.AuthURL,
		Timeout:    cfg.ShipHero.Timeout,
		HTTPClient: o.httpClient,
		TokenCache: tokenCache,
	})
	a.Webhooks = shiphero.WebhookService{
		Client:       a.ShipHero,
		Integrations: stores.IntegrationSettingStore(),
		Settings:     stores.SettingStore(),
		ShopName:     cfg.ShipHero.WebhookShopName,
		Logger:       a.named("shiphero"),
	}

	a.Queue = gojob.NewMemoryQueue(cfg.Workers.QueueSize)
	deps := handlers.Dependencies{
		Companies:    stores.CompanyStore(),
		Integrations: stores.IntegrationSettingStore(),
		Settings:     stores.SettingStore(),
		Callbacks:    stores.CallbackStore(),
		Fluid:        a.Fluid,
		ShipHero:     a.ShipHero,
		Logger:       a.named("handlers"),
	}
	router, err := inbound.NewRouter(a.Queue, handlers.Routes(deps)...)
	if err != nil {
		return err
	}
	router.Logger = a.named("router")
	a.Router = router

	workerLogger := a.named("workers")
	pool, err := gojob.NewWorkerPool(a.Queue, router.Execute, router.Events(), gojob.PoolConfig{
		Count:      cfg.Workers.Count,
		ScriptPath: inbound.ScriptPathHandler,
		Retry:      gojob.NewRetryPolicy(cfg.Workers.MaxAttempts, defaultRetryDelay, cfg.Workers.MaxDelay),
		Logger:     gologger.ToJobLogger(workerLogger),
		Hooks:      []worker.Hook{gojob.NewObservabilityHook(workerLogger, a.Metrics)},
	})
	if err != nil {
		return err
	}
	a.Workers = pool

	webhookLogger := a.named("webhooks")
	receiver := &httpapi.WebhookHandler{
		Router: router,
		Droplets: webhooks.DropletUUIDVerifier{
			Settings: stores.SettingStore(),
			Logger:   webhookLogger,
		},
		Tokens: webhooks.TokenVerifier{
			Companies:   stores.CompanyStore(),
			Settings:    stores.SettingStore(),
			SharedToken: cfg.Fluid.WebhookAuthToken,
			Logger:      webhookLogger,
		},
		Signatures: webhooks.HMACVerifier{
			Settings:       stores.SettingStore(),
			FallbackSecret: cfg.ShipHero.WebhookSecret,
			AllowUnsigned:  cfg.ShipHero.AllowUnsignedWebhooks,
			LogSignatures:  !cfg.IsProduction(),
			Logger:         webhookLogger,
		},
		Metrics:      a.Metrics,
		Logger:       webhookLogger,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	a.Engine = httpapi.NewEngine(httpapi.Options{
		Webhooks: receiver,
		Gatherer: a.Registry,
		Logger:   a.named("http"),
	})
	a.Server = httpapi.NewServer(cfg.HTTP, a.Engine, a.named("http"))

	a.Commands = gocommand.NewBus(adminOperationTimeout)
	return a.Commands.RegisterWebhookOperations(a.Webhooks, stores.CompanyStore(), cfg.ShipHero.WebhookURL)
}

// Start launches the go-job workers. Serve must be called separately to accept
// HTTP traffic.
func (a *App) Start(ctx context.Context) error {
	return a.Workers.Start(ctx)
}

// Serve starts the workers and the HTTP server, and shuts both down once ctx
// is done.
func (a *App) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.Server.Start()
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if err != nil {
			a.Logger.Error("http server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return errors.Join(err, a.Shutdown(shutdownCtx))
}

// Shutdown stops accepting requests, drains queued events and closes the
// database. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		var errs []error
		if a.Server != nil {
			errs = append(errs, a.Server.Shutdown(ctx))
		}
		if a.Workers != nil {
			errs = append(errs, a.Workers.Stop(ctx))
		}
		a.Commands.Close()
		if a.DB != nil {
			errs = append(errs, a.DB.Close())
		}
		a.shutdownErr = errors.Join(errs...)
	})
	return a.shutdownErr
}

func (a *App) named(name string) core.Logger {
	if a.Provider != nil {
		return a.Provider.GetLogger(name)
	}
	return a.Logger
}

func resolveLogger(cfg core.Config, o options) (core.LoggerProvider, core.Logger, error) {
	if o.provider != nil || o.logger != nil {
		provider, logger := gologger.Resolve(cfg.ServiceName, o.provider, o.logger)
		return provider, logger, nil
	}
	provider, logger, err := gologger.Build(cfg.ServiceName, cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("app: build logger: %w", err)
	}
	return provider, logger, nil
}

func newCache(ttl time.Duration) (repositorycache.CacheService, error) {
	config := repositorycache.DefaultConfig()
	if ttl > 0 {
		config.TTL = ttl
	}
	return repositorycache.NewCacheService(config)
}
