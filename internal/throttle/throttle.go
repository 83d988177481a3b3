// Package throttle gates how often content fetches may start and owns the
// cancellation context of the fetch currently in flight.
package throttle

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMinInterval = 800 * time.Millisecond
	DefaultCooldown    = 800 * time.Millisecond
)

// Options configures a Controller. Zero values take the defaults.
type Options struct {
	MinInterval time.Duration
	Cooldown    time.Duration
	Now         func() time.Time
}

// Controller tracks the last fetch start, an in-flight flag, and the
// cancellable context shared by every retriever of one fetch.
type Controller struct {
	minInterval time.Duration
	cooldown    time.Duration
	now         func() time.Time

	mu        sync.Mutex
	lastStart time.Time
	inFlight  bool
	ctx       context.Context
	cancel    context.CancelFunc
	endTimer  *time.Timer
	endGen    uint64
}

// New creates a Controller.
func New(opts Options) *Controller {
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultCooldown
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		minInterval: opts.MinInterval,
		cooldown:    opts.Cooldown,
		now:         opts.Now,
	}
}

// ShouldThrottle reports whether a fetch starting now would come too soon
// after the previous one. A forced fetch is never throttled.
func (c *Controller) ShouldThrottle(force bool) bool {
	if force {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastStart.IsZero() {
		return false
	}
	return c.now().Sub(c.lastStart) < c.minInterval
}

// Context returns the cancellation context of the current request, deriving
// a new one from parent if none is live.
func (c *Controller) Context(parent context.Context) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil && c.ctx.Err() == nil {
		return c.ctx
	}
	c.ctx, c.cancel = context.WithCancel(parent)
	return c.ctx
}

// Abort cancels the current request context, if any. The next Context call
// returns a fresh one.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = nil, nil
}

// MarkStart records a fetch start.
func (c *Controller) MarkStart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastStart = c.now()
	c.inFlight = true
	c.endGen++
	if c.endTimer != nil {
		c.endTimer.Stop()
		c.endTimer = nil
	}
}

// MarkEnd clears the in-flight flag once the cool-down has passed.
func (c *Controller) MarkEnd() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endTimer != nil {
		c.endTimer.Stop()
	}
	gen := c.endGen
	c.endTimer = time.AfterFunc(c.cooldown, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.endGen != gen {
			return // superseded by a newer start
		}
		c.inFlight = false
		c.endTimer = nil
	})
}

// InFlight reports whether a fetch is running or still cooling down.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Stop releases the cool-down timer and cancels any live context.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.endTimer != nil {
		c.endTimer.Stop()
		c.endTimer = nil
	}
	c.endGen++
	c.inFlight = false
	c.mu.Unlock()
	c.Abort()
}
