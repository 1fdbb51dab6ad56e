package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	auth "github.com/goliatone/go-shop-auth"
	"github.com/goliatone/go-shop-auth/activitymap"
	"github.com/goliatone/go-shop-auth/config"
	"github.com/goliatone/go-shop-auth/logging"
	"github.com/goliatone/go-shop-auth/middleware/accesslog"
	"github.com/goliatone/go-shop-auth/middleware/chain"
	"github.com/goliatone/go-shop-auth/middleware/metrics"
	"github.com/goliatone/go-shop-auth/middleware/msgware"
	"github.com/goliatone/go-shop-auth/middleware/sessionware"
	"github.com/goliatone/go-shop-auth/middleware/tenantware"
	"github.com/goliatone/go-shop-auth/repository"
	"github.com/goliatone/go-shop-auth/tenantsource"
)

type App struct {
	config  *config.Config
	zap     *zap.Logger
	logger  auth.Logger
	bunDB   *bun.DB
	repo    *repository.Manager
	codec   *auth.SessionCodec
	auth    *auth.Authenticator
	tenants *auth.TenantRegistry
	loader  *auth.TenantLoader
	source  auth.TenantSource
	redis   *redis.Client
	prom    *prometheus.Registry
	metrics *metrics.Metrics
	chain   *chain.Chain
	server  router.Server[*fiber.App]
	srv     *fiber.App
}

// newApp wires every component from cfg. The tenant registry is loaded
// once before returning.
func newApp(ctx context.Context, cfg *config.Config, zl *zap.Logger) (_ *App, err error) {
	a := &App{
		config: cfg,
		zap:    zl,
		logger: logging.Adapter(zl),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err = a.setupStorage(ctx); err != nil {
		return nil, err
	}

	if err = a.setupAuth(); err != nil {
		return nil, err
	}

	if err = a.setupTenants(ctx); err != nil {
		return nil, err
	}

	if err = a.setupServer(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) setupStorage(ctx context.Context) error {
	db, err := repository.Open(a.config.Database.DSN)
	if err != nil {
		return err
	}
	a.bunDB = db
	a.repo = repository.NewManager(db)

	if err := a.repo.Validate(); err != nil {
		return err
	}

	if err := a.repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (a *App) setupAuth() error {
	key, err := a.config.Session.SessionKey()
	if err != nil {
		return err
	}

	a.codec, err = auth.NewSessionCodec(key, []byte(a.config.Session.AAD), auth.WithLeeway(a.config.Session.Leeway))
	if err != nil {
		return err
	}

	hasher, err := auth.NewHasher()
	if err != nil {
		return err
	}

	a.prom = prometheus.NewRegistry()
	a.prom.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.prom)

	a.auth = auth.NewAuthenticator(a.repo.Users(), hasher, a.codec).
		WithRegistrar(auth.NewRegisterUserHandler(a.repo, hasher)).
		WithLogger(a.logger).
		WithActivitySink(auth.ActivitySinks{
			a.metrics.ActivitySink(),
			activitymap.LogSink(a.logger),
		})

	return nil
}

func (a *App) setupTenants(ctx context.Context) error {
	switch a.config.Tenants.Source {
	case config.SourceFile:
		a.source = tenantsource.NewFile(a.config.Tenants.File)
	case config.SourceRedis:
		a.redis = redis.NewClient(&redis.Options{Addr: a.config.Redis.Addr})
		a.source = tenantsource.NewRedis(a.redis, a.config.Redis.Key, a.config.Redis.Channel)
	default:
		a.source = a.repo.Tenants()
	}

	a.tenants = auth.NewTenantRegistry()
	a.loader = auth.NewTenantLoader(a.source, a.tenants, a.logger, a.config.Tenants.Static...)

	if _, err := a.loader.Reload(ctx); err != nil {
		return err
	}
	return nil
}

func (a *App) setupServer() error {
	message := msgware.Config{}
	if a.config.Message != "" {
		message.Message = msgware.Static(a.config.Message)
	}

	available := map[string]chain.Interceptor{
		config.InterceptorAccessLog: chain.Transport(config.InterceptorAccessLog, accesslog.New(accesslog.Config{Logger: a.zap})),
		config.InterceptorMetrics:   chain.Transport(config.InterceptorMetrics, a.metrics.Middleware()),
		config.InterceptorTenant: chain.Route(config.InterceptorTenant, tenantware.New(tenantware.Config{
			Registry: a.tenants,
			Logger:   a.logger,
		})),
		config.InterceptorAuth: chain.Route(config.InterceptorAuth, sessionware.New(sessionware.Config{
			Verifier:     a.codec,
			LoginURL:     a.config.Auth.LoginURL,
			AllowList:    a.config.Auth.AllowList,
			AppendNext:   true,
			CookieSecure: a.config.Session.CookieSecure,
			Logger:       a.logger,
		})),
		config.InterceptorMessage: chain.Route(config.InterceptorMessage, msgware.New(message)),
	}

	var err error
	if a.chain, err = chain.FromConfig(a.config.Middleware, available); err != nil {
		return err
	}

	// transport interceptors and the scrape endpoint sit ahead of the
	// router, so /metrics never depends on a shop or a session
	a.server = router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app := fiber.New(fiber.Config{
			AppName:               "shopd",
			ErrorHandler:          chain.ErrorHandler(a.logger),
			ReadTimeout:           a.config.HTTP.ReadTimeout,
			WriteTimeout:          a.config.HTTP.WriteTimeout,
			DisableStartupMessage: true,
		})
		a.chain.MountTransport(app)
		app.Get(a.config.Metrics.Path, metrics.Handler(a.prom))
		return app
	})

	r := a.server.Router()
	chain.Mount(a.chain, r)
	a.logger.Info("interceptors mounted", "order", a.chain.Names())

	auth.RegisterAuthRoutes(r,
		auth.WithLoginService(a.auth),
		auth.WithControllerLogger(a.logger),
		auth.WithSecureCookies(a.config.Session.CookieSecure),
		auth.WithRoutes(auth.ControllerRoutes{Login: a.config.Auth.LoginURL}),
	)

	r.Get(a.config.Auth.LoginURL, loginPage).SetName("sign-in.get")
	r.Get("/", homePage).SetName("home")
	r.Get("/account", accountPage).SetName("account")

	a.srv = a.server.WrappedRouter()
	return nil
}

// ReloadTenants refreshes the registry from the configured source
func (a *App) ReloadTenants(ctx context.Context) error {
	_, err := a.loader.Reload(ctx)
	return err
}

// Close releases the database and redis connections
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.repo != nil {
		errs = append(errs, a.repo.Close())
	} else if a.bunDB != nil {
		errs = append(errs, a.bunDB.Close())
	}
	return errors.Join(errs...)
}
