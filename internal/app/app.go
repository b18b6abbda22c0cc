// Package app builds a ready to use class record client from Config: the
// logger, the credential store, the session and the API client.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/credstore"
	"github.com/aussiebroadwan/classrecord/pkg/credstore/sqlite"
	"github.com/aussiebroadwan/classrecord/pkg/cryptox"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	// storeKeyInfo binds the derived integrity key to its use.
	storeKeyInfo = "classrecord/credstore/v1"
	storeKeySize = 32
)

// App owns everything a command needs. Close releases the credential store.
type App struct {
	Config  *Config
	Logger  *slog.Logger
	Session *credstore.Session
	Client  *classrecord.Client

	backend credstore.Backend
	closer  func() error
}

// Option adjusts an App while it is built.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	onExpired  func(ctx context.Context)
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSessionExpiredHook runs fn after a failed refresh has cleared the
// session.
func WithSessionExpiredHook(fn func(ctx context.Context)) Option {
	return func(o *options) { o.onExpired = fn }
}

// New opens the configured credential store and builds the client.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slogx.New(slogx.Config{
			Service: "classrecord",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	a := &App{Config: cfg, Logger: logger}

	if err := a.initStore(ctx); err != nil {
		return nil, err
	}

	seed, err := cryptox.LoadOrGenerateSecret(cfg.DeviceSecretFile)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to load device secret: %w", err)
	}
	key, err := cryptox.DeriveKey(seed, storeKeyInfo, storeKeySize)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to derive store key: %w", err)
	}
	a.Session = credstore.NewSession(credstore.New(a.backend, key))

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: &slogx.Transport{},
		}
	}

	clientOpts := []classrecord.Option{classrecord.WithLogger(logger)}
	if o.onExpired != nil {
		clientOpts = append(clientOpts, classrecord.WithSessionExpiredHook(o.onExpired))
	}

	a.Client = classrecord.New(classrecord.Config{
		BaseURL:      cfg.BaseEndpoint,
		APIKey:       cfg.APIKey,
		SecretKey:    cfg.APISecret,
		Endpoints:    cfg.Endpoints(),
		ExpiryBuffer: cfg.ExpiryBuffer,
		HTTPClient:   httpClient,
	}, a.Session, clientOpts...)

	return a, nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.Config.StoreMode {
	case StoreMemory:
		a.backend = credstore.NewMemoryBackend()
		a.closer = func() error { return nil }
		a.Logger.Debug("credential store in memory; sessions end with the process")
	default:
		st, err := sqlite.Open(ctx, a.Config.StoreFile)
		if err != nil {
			return fmt.Errorf("failed to open credential store: %w", err)
		}
		a.backend = st
		a.closer = st.Close
		a.Logger.Debug("credential store opened", "path", a.Config.StoreFile)
	}
	return nil
}

// Close releases the credential store.
func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}
