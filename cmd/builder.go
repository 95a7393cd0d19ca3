package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"duoadmin/api"
	apiconsole "duoadmin/api/console"
	"duoadmin/api/health"
	apinotification "duoadmin/api/notification"
	consoleapp "duoadmin/application/console"
	notificationapp "duoadmin/application/notification"
	"duoadmin/config"
	"duoadmin/domain/audit"
	"duoadmin/infrastructure/export"
	"duoadmin/infrastructure/inflight"
	"duoadmin/infrastructure/persistence/mocks"
	"duoadmin/infrastructure/persistence/mysql"
	"duoadmin/infrastructure/persistence/retry"
	"duoadmin/infrastructure/upstream"
	"duoadmin/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg          *config.Config
	controllers  []api.ControllerRegister
	middlewares  []api.MiddlewareRegister
	customRoutes []api.Route
	httpClient   *http.Client
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{
		cfg:          cfg,
		controllers:  []api.ControllerRegister{},
		middlewares:  []api.MiddlewareRegister{},
		customRoutes: []api.Route{},
	}
}

// WithController adds a secured controller to the app
func (b *AppBuilder) WithController(c api.ControllerRegister) *AppBuilder {
	b.controllers = append(b.controllers, c)
	return b
}

// WithMiddleware adds a middleware to the app
func (b *AppBuilder) WithMiddleware(m api.MiddlewareRegister) *AppBuilder {
	b.middlewares = append(b.middlewares, m)
	return b
}

// WithRoute adds a custom route
func (b *AppBuilder) WithRoute(method, path string, handler gin.HandlerFunc) *AppBuilder {
	b.customRoutes = append(b.customRoutes, api.Route{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
	return b
}

// WithHTTPClient overrides the client used for upstream calls
func (b *AppBuilder) WithHTTPClient(c *http.Client) *AppBuilder {
	b.httpClient = c
	return b
}

// Build creates the App instance
func (b *AppBuilder) Build() (*App, error) {
	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env))

	deps := map[string]health.Pinger{}
	var closers []func() error

	auditRepo, db, err := b.initAudit()
	if err != nil {
		return nil, err
	}
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		deps["database"] = health.PingFunc(sqlDB.PingContext)
		closers = append(closers, sqlDB.Close)
	}

	guard, err := b.initGuard()
	if err != nil {
		return nil, err
	}
	if rg, ok := guard.(*inflight.RedisGuard); ok {
		deps["redis"] = rg
		closers = append(closers, rg.Close)
	}

	var opts []upstream.Option
	if b.httpClient != nil {
		opts = append(opts, upstream.WithHTTPClient(b.httpClient))
	}
	client := upstream.New(b.cfg.Upstream, opts...)

	pages := consoleapp.NewPageStore(b.cfg.Pages.MaxSlots, b.cfg.Pages.SlotTTL)
	service := consoleapp.NewApplicationService(
		client, client, guard, auditRepo, pages, b.cfg.Pages,
		export.XLSX{}, export.PDF{},
	)

	public := []api.ControllerRegister{health.NewController(b.cfg, deps)}
	controllers := append([]api.ControllerRegister{
		apiconsole.NewController(service),
		apinotification.NewController(notificationapp.NewApplicationService(client)),
	}, b.controllers...)

	router := api.NewRouter(b.cfg, public, controllers, b.middlewares, b.customRoutes)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config:  b.cfg,
		router:  router,
		server:  server,
		closers: closers,
	}, nil
}

func (b *AppBuilder) initAudit() (audit.Repository, *gorm.DB, error) {
	if b.cfg.Audit.Type != "mysql" {
		logger.Info("Using in-memory audit log")
		return mocks.NewMockAuditRepository(), nil, nil
	}

	logger.Info("Using MySQL/GORM audit log")
	db, err := mysql.FromAppConfig(b.cfg.Audit.Database).Connect()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mysql.Ping(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}
	logger.Info("Connected to MySQL successfully")

	repo := mysql.NewAuditRepository(db, retry.FromConfig(b.cfg.Audit.Database.Retry))
	if err := repo.AutoMigrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return repo, db, nil
}

func (b *AppBuilder) initGuard() (consoleapp.Guard, error) {
	if b.cfg.InFlight.Type != "redis" {
		return inflight.NewMemoryGuard(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	g, err := inflight.NewRedisGuard(ctx, b.cfg.InFlight.RedisAddr, b.cfg.InFlight.RedisDB, b.cfg.InFlight.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Using redis in-flight guard", zap.String("addr", b.cfg.InFlight.RedisAddr))
	return g, nil
}
