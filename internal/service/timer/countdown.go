// Package timer runs the per-question countdown.
package timer

import (
	"context"
	"sync"
	"time"
)

// FallbackSeconds seeds the displayed countdown when no timer is configured.
const FallbackSeconds = 15

// Controller drives one countdown at a time. Starting a new countdown or calling Stop
// cancels the previous one; a canceled countdown never calls its callbacks again.
type Controller struct {
	interval time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New returns a Controller stepping once per interval. A non-positive interval means
// one second.
func New(interval time.Duration) *Controller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Controller{interval: interval}
}

// Start counts down from seconds. onTick receives every remaining value above zero;
// onExpire runs once when the count reaches zero. Callbacks run on the countdown
// goroutine and must not call Start or Stop synchronously while holding locks the
// caller of Stop also holds.
func (c *Controller) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx, gen, seconds, onTick, onExpire)
}

// Stop cancels the running countdown, if any. It does not wait for the goroutine.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

// Running reports whether a countdown is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

func (c *Controller) run(ctx context.Context, gen uint64, remaining int, onTick func(int), onExpire func()) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining--
			if remaining <= 0 {
				if !c.finish(gen) {
					return
				}
				if onExpire != nil {
					onExpire()
				}
				return
			}
			if !c.current(gen) {
				return
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// finish retires gen if it is still the active countdown.
func (c *Controller) finish(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return true
}
