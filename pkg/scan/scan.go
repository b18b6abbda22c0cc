// Package scan turns a noisy stream of decoded barcodes into discrete,
// confirmed scans.
//
// A camera decoder reports the same code many times per second. A Debouncer
// accepts the first code that survives its settle delay, disarms, and runs
// its action once. It ignores everything afterwards until Reset.
package scan

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/classrecord/pkg/slogx"
)

// Action runs once per confirmed scan.
type Action func(ctx context.Context, code string) error

// Validator rejects codes before they are scheduled. A rejected code leaves
// the debouncer armed.
type Validator func(code string) error

type Option func(*Debouncer)

// WithSettleDelay sets how long a code must remain the latest one before it
// is confirmed. The default is zero: confirm on the next timer tick.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Debouncer) { s.settle = d }
}

func WithValidator(v Validator) Option {
	return func(s *Debouncer) { s.validate = v }
}

// WithOnReject is called with each code the validator rejects.
func WithOnReject(fn func(code string, err error)) Option {
	return func(s *Debouncer) { s.onReject = fn }
}

// WithOnResult is called after the action of a confirmed scan returns.
func WithOnResult(fn func(code string, err error)) Option {
	return func(s *Debouncer) { s.onResult = fn }
}

// WithContext sets the context actions run under. Cancelling it does not
// close the debouncer.
func WithContext(ctx context.Context) Option {
	return func(s *Debouncer) { s.ctx = ctx }
}

// Debouncer is safe for concurrent use.
type Debouncer struct {
	action   Action
	validate Validator
	onReject func(string, error)
	onResult func(string, error)
	settle   time.Duration
	ctx      context.Context

	mu       sync.Mutex
	armed    bool
	closed   bool
	lastCode string
	pending  *time.Timer
	// gen invalidates timer callbacks that lost a race with Feed, Reset or Close.
	gen uint64

	// inflight counts scheduled timers until they are stopped or their
	// callback returns.
	inflight sync.WaitGroup
}

func New(action Action, opts ...Option) *Debouncer {
	d := &Debouncer{
		action: action,
		ctx:    context.Background(),
		armed:  true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed reports one decode event.
func (d *Debouncer) Feed(code string) {
	d.mu.Lock()
	if d.closed || !d.armed || code == d.lastCode {
		d.mu.Unlock()
		return
	}

	d.stopLocked()

	if d.validate != nil {
		if err := d.validate(code); err != nil {
			d.mu.Unlock()

			slogx.FromContext(d.ctx).Debug("scan rejected", "error", err)
			if d.onReject != nil {
				d.onReject(code, err)
			}
			return
		}
	}

	gen := d.gen
	d.inflight.Add(1)
	d.pending = time.AfterFunc(d.settle, func() {
		defer d.inflight.Done()
		d.fire(gen, code)
	})
	d.mu.Unlock()
}

func (d *Debouncer) fire(gen uint64, code string) {
	d.mu.Lock()
	if d.closed || !d.armed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.lastCode = code
	d.armed = false
	d.pending = nil
	d.mu.Unlock()

	log := slogx.FromContext(d.ctx)
	log.Debug("scan confirmed")

	err := d.action(d.ctx, code)
	if err != nil {
		log.Warn("scan action failed", "error", err)
	}

	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()

	if !closed && d.onResult != nil {
		d.onResult(code, err)
	}
}

// Reset forgets the last code, cancels any pending confirmation and re-arms.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.lastCode = ""
	d.armed = !d.closed
}

// Close cancels any pending confirmation. Later events are ignored and no
// callback fires after Close returns. An action already running is not
// interrupted.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.closed = true
	d.armed = false
}

// Wait blocks until no confirmation is pending and no action is running.
// Callers must stop feeding events before they Wait.
func (d *Debouncer) Wait() {
	d.inflight.Wait()
}

func (d *Debouncer) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

func (d *Debouncer) LastCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastCode
}

func (d *Debouncer) stopLocked() {
	if d.pending != nil {
		if d.pending.Stop() {
			d.inflight.Done()
		}
		d.pending = nil
	}
	d.gen++
}
