package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tomb "gopkg.in/tomb.v2"
)

// ErrStopPolling, returned from a tick, ends the poller's loop.
var ErrStopPolling = errors.New("stop polling")

type TickFunc func(ctx context.Context) error

// Poller runs a tick immediately and then at a fixed interval until stopped.
// It owns its timer: Start replaces a running loop instead of adding one.
//
// A tick must never call Stop or Start on its own poller; return
// ErrStopPolling instead.
type Poller struct {
	name     string
	interval time.Duration
	tick     TickFunc
	logger   *slog.Logger

	mu     sync.Mutex
	t      *tomb.Tomb
	active atomic.Int32
}

func NewPoller(name string, interval time.Duration, tick TickFunc, logger *slog.Logger) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		tick:     tick,
		logger:   logger.With("poller", name),
	}
}

// Start begins polling. Ticks run with ctx, so stopping the poller does not
// cancel a request already in flight; cancelling ctx does.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	t := &tomb.Tomb{}
	p.t = t
	p.logger.Info("starting", "interval", p.interval)
	t.Go(func() error {
		return p.loop(ctx, t)
	})
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.t == nil {
		return
	}
	if p.t.Alive() {
		p.logger.Info("stopping")
	}
	p.t.Kill(nil)
	_ = p.t.Wait()
	p.t = nil
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.t != nil && p.t.Alive()
}

// Active reports how many loops are currently alive. It is never more than one.
func (p *Poller) Active() int {
	return int(p.active.Load())
}

func (p *Poller) loop(ctx context.Context, t *tomb.Tomb) error {
	p.active.Add(1)
	defer p.active.Add(-1)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.runTick(ctx) {
		return nil
	}

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.runTick(ctx) {
				return nil
			}
		}
	}
}

// runTick reports whether the loop should end.
func (p *Poller) runTick(ctx context.Context) bool {
	err := p.tick(ctx)
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrStopPolling):
		p.logger.Warn("tick asked to stop polling", "error", err)
		return true
	default:
		p.logger.Warn("tick failed", "error", err)
		return false
	}
}
