package speech

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-engine/internal/logging"
)

// #region capture-struct
// Capture keeps a recognizer running for the length of a session. When a recognizer session
// ends on its own it is restarted, unless capture is paused or stopped. Once stopped it never
// restarts.
type Capture struct {
	cfg  Config
	rec  Recognizer
	sink func(Fragment)
	log  logrus.FieldLogger

	mu       sync.Mutex
	started  bool
	paused   bool
	stopped  bool
	cancel   context.CancelFunc // current recognizer session
	wake     chan struct{}
	done     chan struct{}
	restarts int
}

// NewCapture creates an idle capture relaying fragments from rec to sink.
func NewCapture(cfg Config, rec Recognizer, sink func(Fragment), log logrus.FieldLogger) *Capture {
	if log == nil {
		log = logging.Discard()
	}
	return &Capture{
		cfg:  cfg,
		rec:  rec,
		sink: sink,
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}
// #endregion capture-struct

// #region lifecycle
// Start launches the capture goroutine.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	go c.run(ctx)
	return nil
}

// Pause ends the current recognizer session and holds off restarts until Resume.
func (c *Capture) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.paused {
		return
	}
	c.paused = true
	if c.cancel != nil {
		c.cancel()
	}
}

// Resume lifts a Pause. It has no effect after Stop.
func (c *Capture) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || !c.paused {
		return
	}
	c.paused = false
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Stop ends capture for good and waits for the capture goroutine to exit.
func (c *Capture) Stop() {
	c.halt()
	<-c.doneIfStarted()
}

// StopWithin ends capture for good and waits at most grace for the capture goroutine. It reports
// false when a recognizer that ignores cancellation keeps the goroutine alive past grace; the
// goroutine is abandoned and relays nothing further.
func (c *Capture) StopWithin(grace time.Duration) bool {
	c.halt()
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-c.doneIfStarted():
		return true
	case <-t.C:
		return false
	}
}

func (c *Capture) halt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.cancel != nil {
		c.cancel()
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Listening reports whether fragments are currently being relayed.
func (c *Capture) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.paused && !c.stopped
}

// Restarts returns how many times the recognizer was restarted after ending on its own.
func (c *Capture) Restarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restarts
}

func (c *Capture) doneIfStarted() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return c.done
}
// #endregion lifecycle

// #region run
func (c *Capture) run(ctx context.Context) {
	defer close(c.done)
	for {
		sctx, ok := c.nextSession(ctx)
		if !ok {
			return
		}

		ch, err := c.rec.Start(sctx)
		if errors.Is(err, ErrSourceClosed) {
			c.log.Debug("speech: source closed, capture ending")
			c.endSession()
			return
		}
		if err != nil {
			c.log.WithError(err).Warn("speech: recognizer failed to start")
			c.endSession()
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		for f := range ch {
			if c.relaying() {
				c.sink(f)
			}
		}
		if c.endSession() {
			c.log.WithField("restarts", c.Restarts()).Debug("speech: recognizer ended, restarting")
			if !c.sleep(ctx) {
				return
			}
		}
	}
}

// nextSession blocks while paused and returns a context for the next recognizer session.
// It reports false once capture is stopped or ctx is done.
func (c *Capture) nextSession(ctx context.Context) (context.Context, bool) {
	for {
		c.mu.Lock()
		if c.stopped || ctx.Err() != nil {
			c.mu.Unlock()
			return nil, false
		}
		if !c.paused {
			sctx, cancel := context.WithCancel(ctx)
			c.cancel = cancel
			c.mu.Unlock()
			return sctx, true
		}
		c.mu.Unlock()

		select {
		case <-c.wake:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// endSession releases the session context and reports whether the session ended on its own
// while capture was live, which counts as a restart.
func (c *Capture) endSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.stopped || c.paused {
		return false
	}
	c.restarts++
	return true
}

func (c *Capture) relaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.paused && !c.stopped
}

func (c *Capture) sleep(ctx context.Context) bool {
	if c.cfg.RestartDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.cfg.RestartDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.wake:
		// Stop or Resume during the delay; nextSession re-checks state
		return true
	}
}
// #endregion run
