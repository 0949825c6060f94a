package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/gatehouse/internal/idp/domain"
	"github.com/aussiebroadwan/gatehouse/internal/idp/gateway"
	httpapi "github.com/aussiebroadwan/gatehouse/internal/idp/http"
	"github.com/aussiebroadwan/gatehouse/internal/idp/service"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store/drivers/memory"
	"github.com/aussiebroadwan/gatehouse/internal/idp/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatehouse/pkg/httpx"
	"github.com/aussiebroadwan/gatehouse/pkg/jwtx"
	"github.com/aussiebroadwan/gatehouse/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity-provider client with all its
// dependencies.
type Application struct {
	cfg     Config
	logger  *slog.Logger
	signing jwtx.SigningContext

	db      store.Store
	gateway gateway.Resources
	cache   *gateway.CachedResources
	rdb     *redis.Client

	tokens       *service.TokenIssuer
	grants       *service.GrantAuthenticator
	bearer       *service.BearerAuthenticator
	sessions     *service.SessionResolver
	saml         *service.SamlProcessor
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatehouse",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	signing, err := SigningContextFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	app.signing = signing

	if err := app.initStore(); err != nil {
		return nil, err
	}
	app.initGateway()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("gatehouse starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down gatehouse...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("gatehouse stopped")
	return nil
}

func (app *Application) initStore() error {
	switch app.cfg.NonceStoreMode {
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize nonce store: %w", err)
		}
		if err := db.ApplyMigrations(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		app.db = db
		app.logger.Info("sqlite nonce store ready", "file", app.cfg.DatabaseFile)

	default:
		app.db = memory.NewStore()
		app.logger.Info("in-memory nonce store ready")
	}
	return nil
}

func (app *Application) initGateway() {
	client := gateway.NewClient(gateway.Config{
		BaseURL:         app.cfg.BaseURL,
		ApplicationHref: app.cfg.ApplicationHref,
		APIKeyID:        app.cfg.APIKeyID,
		APIKeySecret:    app.cfg.APIKeySecret,
		Timeout:         app.cfg.GatewayTimeout,
	})
	app.gateway = client

	if app.cfg.RedisAddr != "" {
		app.rdb = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		app.cache = gateway.NewCachedResources(client, app.rdb, app.cfg.CacheTTL)
		app.gateway = app.cache
		app.logger.Info("resource cache enabled", "addr", app.cfg.RedisAddr)
	}
}

func (app *Application) initServices() {
	app.tokens = service.NewTokenIssuer(
		app.signing,
		app.cfg.ApplicationHref,
		app.cfg.AccessTTL,
		app.cfg.RefreshTTL,
	)

	app.grants = service.NewGrantAuthenticator(app.tokens, app.gateway, nil)
	app.grants.Nonces = app.db.Nonces()
	app.grants.RotateRefresh = app.cfg.RotateRefresh

	app.bearer = service.NewBearerAuthenticator(app.signing, app.cfg.ApplicationHref, app.gateway)

	cookies := &httpx.SessionCookies{
		Access: httpx.CookieConfig{
			Name:     app.cfg.CookieAccessName,
			Domain:   app.cfg.CookieDomain,
			Path:     app.cfg.CookiePath,
			HTTPOnly: true,
			Secure:   true,
		},
		Refresh: httpx.CookieConfig{
			Name:     app.cfg.CookieRefreshName,
			Domain:   app.cfg.CookieDomain,
			Path:     app.cfg.CookiePath,
			HTTPOnly: true,
			Secure:   true,
		},
	}
	app.sessions = service.NewSessionResolver(app.bearer, app.grants, cookies)

	app.saml = service.NewSamlProcessor(app.signing, app.db.Nonces())
	app.saml.AddListener(service.AssertionListener{
		OnAuthenticated: func(ctx context.Context, result domain.AssertionResult) {
			slogx.FromContext(ctx).Info("federated login",
				"account", result.AccountHref, "new_account", result.IsNewAccount)
			if app.cache != nil && result.AccountHref != "" {
				// The provider may have just created or updated the
				// account; don't serve a stale copy.
				app.cache.InvalidateAccount(ctx, result.AccountHref)
			}
		},
		OnLogout: func(ctx context.Context, result domain.AssertionResult) {
			slogx.FromContext(ctx).Info("federated logout", "account", result.AccountHref)
		},
	})

	app.housekeeping = service.NewHousekeepingService(
		app.db.Nonces(),
		app.logger,
		app.cfg.HousekeepingInterval,
	)

	app.router = httpapi.NewRouter(
		BuildVersion,
		app.cfg.APIKeyID,
		app.db,
		app.gateway,
		cookies,
		app.logger,
	)
}

func (app *Application) initHTTP() {
	app.router.Tokens = app.tokens
	app.router.Grants = app.grants
	app.router.Bearer = app.bearer
	app.router.Sessions = app.sessions
	app.router.Saml = app.saml
	app.router.ApplyRoutes()

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
