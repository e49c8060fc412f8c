// Package remap toggles the system-level key remapping that strips the
// trigger key of its native effect while switching is authorized.
package remap

import (
	"context"
	"sync"
	"time"
)

// DefaultTimeout bounds one remapping command. A hung utility leaves the
// true mapping state unknown, which forces a fresh command on the next
// reconcile.
const DefaultTimeout = 5 * time.Second

// Runner executes the platform remapping utility.
type Runner interface {
	Apply(ctx context.Context) error
	Revert(ctx context.Context) error
}

// Done reports one finished command. Applied is the state the command
// tried to reach, not necessarily the state it achieved.
type Done struct {
	Applied bool
	Err     error
	Took    time.Duration
}

// Controller converges the system mapping toward a desired state. At most
// one command runs at a time; requests issued while one is in flight are
// coalesced into the desired state and reconciled on completion. The
// applied flag only flips on confirmed success.
type Controller struct {
	runner  Runner
	timeout time.Duration
	notify  func(Done)

	mu       sync.Mutex
	desired  bool
	applied  bool
	known    bool
	inflight bool
}

// NewController returns a controller that assumes a reverted mapping at
// launch. The assumption only drops after a failed or hung command.
// notify, if non-nil, is called after every finished command; callers
// marshal it onto their own context.
func NewController(r Runner, timeout time.Duration, notify func(Done)) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{runner: r, timeout: timeout, notify: notify, known: true}
}

// Want records the desired mapping state and starts a command if one is
// needed. Calling it again with the same state is free once that state
// has been confirmed.
func (c *Controller) Want(applied bool) {
	c.mu.Lock()
	c.desired = applied
	if c.inflight {
		c.mu.Unlock()
		return
	}
	if c.known && c.applied == applied {
		c.mu.Unlock()
		return
	}
	c.inflight = true
	c.mu.Unlock()
	go c.run(applied)
}

func (c *Controller) run(target bool) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	var err error
	if target {
		err = c.runner.Apply(ctx)
	} else {
		err = c.runner.Revert(ctx)
	}
	cancel()
	took := time.Since(start)

	c.mu.Lock()
	c.inflight = false
	if err == nil {
		c.applied = target
		c.known = true
	} else {
		c.known = false
	}
	var next *bool
	if c.desired != target && (!c.known || c.applied != c.desired) {
		d := c.desired
		c.inflight = true
		next = &d
	}
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(Done{Applied: target, Err: err, Took: took})
	}
	if next != nil {
		go c.run(*next)
	}
}

// Applied reports the last confirmed mapping state. known is false while
// a failed or hung command leaves the true state ambiguous.
func (c *Controller) Applied() (applied, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied, c.known
}

// Wait blocks until no command is running or until d elapses, and
// reports whether the confirmed state matches the desired one. Used at
// shutdown to give the final revert a chance to land.
func (c *Controller) Wait(d time.Duration) bool {
	deadline := time.Now().Add(d)
	for {
		c.mu.Lock()
		idle := !c.inflight
		ok := c.known && c.applied == c.desired
		c.mu.Unlock()
		if idle {
			return ok
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
