package classrecord

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/credstore"
	"github.com/aussiebroadwan/classrecord/pkg/slogx"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultExpiryBuffer is how long before exp an access token is already
	// treated as expired.
	DefaultExpiryBuffer = 10 * time.Second

	DefaultHTTPTimeout = 10 * time.Second
)

// Header names the API expects on every request.
const (
	HeaderAPIKey    = "API_KEY"
	HeaderSecretKey = "SECRET_KEY"
)

// SessionStore is the persisted session the pipeline reads and rotates.
// *credstore.Session satisfies it.
type SessionStore interface {
	AccessToken(ctx context.Context) (string, bool)
	RefreshToken(ctx context.Context) (string, bool)
	SetTokens(ctx context.Context, access, refresh string) error
	Profile(ctx context.Context) (credstore.Profile, bool)
	SetProfile(ctx context.Context, p credstore.Profile) error
	Clear(ctx context.Context) error
}

var _ SessionStore = (*credstore.Session)(nil)

type Config struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Endpoints Endpoints

	// ExpiryBuffer defaults to DefaultExpiryBuffer when zero.
	ExpiryBuffer time.Duration

	// HTTPClient defaults to a client with DefaultHTTPTimeout whose
	// transport logs dispatches through slogx.
	HTTPClient *http.Client
}

// Client talks to the class record API on behalf of a single session.
type Client struct {
	cfg  Config
	sess SessionStore
	http *http.Client

	logger    *slog.Logger
	now       func() time.Time
	onExpired func(ctx context.Context)

	refreshes singleflight.Group
}

type Option func(*Client)

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithSessionExpiredHook registers fn to run after the session has been
// cleared because a refresh failed. Consumers use it to route back to login.
func WithSessionExpiredHook(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onExpired = fn }
}

func New(cfg Config, sess SessionStore, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.ExpiryBuffer == 0 {
		cfg.ExpiryBuffer = DefaultExpiryBuffer
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   DefaultHTTPTimeout,
			Transport: &slogx.Transport{},
		}
	}

	c := &Client{
		cfg:  cfg,
		sess: sess,
		http: httpClient,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoints returns the configured URL fragments.
func (c *Client) Endpoints() Endpoints { return c.cfg.Endpoints }

func (c *Client) url(path string) string {
	return c.cfg.BaseURL + path
}

func (c *Client) log(ctx context.Context) *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slogx.FromContext(ctx)
}

func (c *Client) setKeyHeaders(h http.Header) {
	h.Set("Content-Type", "application/json")
	h.Set(HeaderAPIKey, c.cfg.APIKey)
	h.Set(HeaderSecretKey, c.cfg.SecretKey)
}
