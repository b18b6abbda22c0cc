package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/httpx"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the dev API server together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store        *Store
	tokens       *TokenService
	housekeeping *Housekeeping

	server *http.Server
	router *Router
}

// Option adjusts an Application before it starts serving.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) { a.logger = l }
}

// New seeds a fresh store and builds the HTTP stack.
func New(cfg Config, opts ...Option) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "classrecord-fakeapi",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}
	for _, opt := range opts {
		opt(app)
	}

	app.store = NewStore()
	if err := Seed(app.store, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	tokens, err := NewTokenService(app.store, cfg.Issuer, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokens: %w", err)
	}
	app.tokens = tokens

	app.housekeeping = NewHousekeeping(app.store, app.logger, cfg.HousekeepingInterval)

	app.initHTTP()
	return app, nil
}

func (app *Application) initHTTP() {
	router := NewRouter(RouterConfig{
		Endpoints: classrecord.DefaultEndpoints(),
		Verifier:  app.tokens.Verifier,
		APIKey:    app.cfg.APIKey,
		APISecret: app.cfg.APISecret,
		Strict: httpx.RateLimitConfig{
			RequestsPerWindow: app.cfg.RateLimitStrict,
			Window:            time.Minute,
			Burst:             app.cfg.RateLimitStrict,
		},
		Lenient: httpx.RateLimitConfig{
			RequestsPerWindow: app.cfg.RateLimitLenient,
			Window:            time.Minute,
			Burst:             max(1, app.cfg.RateLimitLenient/5),
		},
		BuildVersion: BuildVersion,
	}, app.logger)

	router.Auth = &AuthHandler{
		Tokens: app.tokens,
		Registrations: &RegistrationService{
			Store:  app.store,
			Issuer: app.cfg.Issuer,
			OTPTTL: app.cfg.OTPTTL,
		},
		ReturnOTP: app.cfg.OTPReturnToClient,
	}
	router.Teacher = &TeacherHandler{Store: app.store}
	router.Student = &StudentHandler{Store: app.store}
	router.Choices = &ChoicesHandler{Store: app.store}
	router.ApplyRoutes()

	app.router = router
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the routed handler for in-process use with httptest.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Store exposes the seeded store.
func (app *Application) Store() *Store {
	return app.store
}

// Run starts the server and blocks until a shutdown signal or a server error.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("class record dev api starting", "port", app.cfg.Port, "version", BuildVersion)
	if app.cfg.OTPReturnToClient {
		app.logger.Warn("registration codes are returned to clients")
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeeping.Stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gives outstanding requests the grace period, then stops
// housekeeping.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down class record dev api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var err error
	if err = app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if cerr := app.server.Close(); cerr != nil {
			app.logger.Error("error closing server", "error", cerr)
		}
	}

	app.housekeeping.Stop()

	app.logger.Info("class record dev api stopped")
	return err
}
