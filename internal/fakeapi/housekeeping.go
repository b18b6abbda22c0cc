package fakeapi

import (
	"log/slog"
	"time"
)

// Housekeeping periodically drops expired refresh tokens and pending
// registrations so long dev sessions do not grow without bound.
type Housekeeping struct {
	Store    *Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeping defaults a non-positive interval to one hour.
func NewHousekeeping(store *Store, logger *slog.Logger, interval time.Duration) *Housekeeping {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Housekeeping{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to end it.
func (h *Housekeeping) Start() {
	go h.run()
	h.Logger.Info("housekeeping started", "interval", h.Interval)
}

// Stop blocks until an in-progress cleanup has finished.
func (h *Housekeeping) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("housekeeping stopped")
}

func (h *Housekeeping) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.Cleanup(time.Now())
		case <-h.stopCh:
			return
		}
	}
}

// Cleanup drops everything expired at now.
func (h *Housekeeping) Cleanup(now time.Time) {
	tokens := h.Store.PurgeRefreshTokens(now)
	pending := h.Store.PurgePending(now)
	h.Logger.Debug("housekeeping cleanup completed",
		"refresh_tokens", tokens,
		"registrations", pending,
	)
}
