// Package poller recomputes the public status on a fixed interval so page
// requests can be served from memory.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gymwatch/gymwatch/internal/service"
)

// DefaultInterval is how often the status is recomputed.
const DefaultInterval = 60 * time.Second

// StatusSource computes a status snapshot. *service.ScheduleService satisfies it.
type StatusSource interface {
	Status(ctx context.Context, now time.Time) *service.Status
}

// Poller refreshes a status snapshot immediately and then once per interval.
//
// Every tick starts its own refresh; a slow refresh does not delay or
// suppress the next one. Whichever refresh completes last owns the snapshot.
type Poller struct {
	source   StatusSource
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	snapshot *service.Status

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	inflight  sync.WaitGroup
}

// New creates a Poller. A non-positive interval uses DefaultInterval.
func New(source StatusSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:   source,
		interval: interval,
		logger:   logger.With("component", "poller"),
		now:      time.Now,
	}
}

// Interval returns the refresh period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start runs the refresh loop in the background until Stop is called or
// ctx is cancelled. Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		p.Run(ctx)
	}(p.done)
}

// Run refreshes immediately and on every tick until ctx is cancelled. It
// returns once all refreshes it started have finished.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("status poller started", slog.Duration("interval", p.interval))

	p.launch(ctx)
	for {
		select {
		case <-ctx.Done():
			p.inflight.Wait()
			p.logger.Info("status poller stopped")
			return
		case <-ticker.C:
			p.launch(ctx)
		}
	}
}

// Stop cancels the loop and waits for it to exit. Safe to call more than
// once and before Start.
func (p *Poller) Stop() {
	p.lifecycle.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Refresh computes one snapshot synchronously and stores it.
func (p *Poller) Refresh(ctx context.Context) *service.Status {
	st := p.source.Status(ctx, p.now())
	if ctx.Err() != nil {
		// Reads during shutdown degrade to empty answers; keep the last good snapshot.
		return st
	}

	p.mu.Lock()
	p.snapshot = st
	p.mu.Unlock()

	p.logger.Debug("status refreshed",
		"present", st.Present,
		"upcoming", len(st.Upcoming),
		"danger", st.Danger,
	)
	return st
}

// Snapshot returns the last stored status, or nil before the first refresh.
func (p *Poller) Snapshot() *service.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Fresh returns the snapshot when it was taken less than two intervals
// before now.
func (p *Poller) Fresh(now time.Time) (*service.Status, bool) {
	st := p.Snapshot()
	if st == nil {
		return nil, false
	}
	if age := now.Sub(st.CheckedAt); age < 0 || age >= 2*p.interval {
		return nil, false
	}
	return st, true
}

func (p *Poller) launch(ctx context.Context) {
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		p.Refresh(ctx)
	}()
}
