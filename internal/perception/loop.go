package perception

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/interview-engine/internal/logging"
	"github.com/danielpatrickdp/interview-engine/internal/telemetry"
)

// #region errors
var (
	ErrAlreadyStarted = errors.New("perception loop already started")
	ErrStopped        = errors.New("perception loop stopped")
)
// #endregion errors

// #region loop-struct
// Sink receives completed samples. It is called from loop goroutines.
type Sink func(Sample)

// Loop polls a FrameSource through a Detector on a fixed cadence and runs a watchdog that
// forces an out-of-band sample when polling stalls. Samples completing after Disable or Stop
// are discarded.
type Loop struct {
	cfg      Config
	frames   FrameSource
	detector Detector
	sink     Sink
	log      logrus.FieldLogger
	metrics  *telemetry.Metrics

	// mu guards the enabled/stopped transitions against begin() so inflight.Add never races Wait.
	mu       sync.Mutex
	enabled  atomic.Bool
	stopped  atomic.Bool
	cancel   context.CancelFunc
	group    *errgroup.Group
	inflight sync.WaitGroup
	lastDone atomic.Int64 // unix nanos of the last completed sample
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l
		}
	}
}

// WithMetrics records sample outcomes and watchdog kicks.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(lp *Loop) { lp.metrics = m }
}

// NewLoop creates a stopped loop. Call Start to begin polling.
func NewLoop(cfg Config, frames FrameSource, detector Detector, sink Sink, opts ...Option) *Loop {
	l := &Loop{
		cfg:      cfg,
		frames:   frames,
		detector: detector,
		sink:     sink,
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
// #endregion loop-struct

// #region lifecycle
// Start launches the poll and watchdog goroutines. The loop runs until Stop or ctx is cancelled.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped.Load() {
		return ErrStopped
	}
	if l.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	l.cancel = cancel
	l.group = g
	l.enabled.Store(true)
	l.lastDone.Store(time.Now().UnixNano())

	g.Go(func() error {
		l.poll(gctx)
		return nil
	})
	g.Go(func() error {
		l.watchdog(gctx)
		return nil
	})
	l.log.WithFields(logrus.Fields{
		"poll_interval": l.cfg.PollInterval,
		"stall_after":   l.cfg.StallAfter,
	}).Debug("perception: loop started")
	return nil
}

// Active reports whether the camera is enabled and the loop has not been stopped.
func (l *Loop) Active() bool {
	return l.enabled.Load() && !l.stopped.Load()
}

// Disable turns the camera off. No further polls are scheduled.
func (l *Loop) Disable() {
	l.mu.Lock()
	l.enabled.Store(false)
	l.mu.Unlock()
}

// Stop cancels the poll and watchdog timers and any in-flight sample context.
// It is safe to call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped.Store(true)
	l.enabled.Store(false)
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()
}

// Wait blocks until in-flight samples and loop goroutines have exited, or grace elapses.
// It reports whether everything exited in time. Call after Stop.
func (l *Loop) Wait(grace time.Duration) bool {
	l.mu.Lock()
	g := l.group
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		if g != nil {
			_ = g.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(grace):
		l.log.WithField("grace", grace).Warn("perception: in-flight sample did not exit within grace period")
		return false
	}
}
// #endregion lifecycle

// #region schedulers
func (l *Loop) poll(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !l.Active() {
				return
			}
			l.sample(ctx, TriggerPoll)
		}
	}
}

func (l *Loop) watchdog(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.WatchdogInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !l.Active() {
				return
			}
			since := now.Sub(time.Unix(0, l.lastDone.Load()))
			if since <= l.cfg.StallAfter {
				continue
			}
			l.metrics.IncWatchdogKicks()
			l.log.WithField("since_last_sample", since).Warn("perception: sampling stalled, forcing sample")
			go l.sample(ctx, TriggerWatchdog)
		}
	}
}
// #endregion schedulers

// #region sample
// begin registers an in-flight sample unless the loop is inactive.
func (l *Loop) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.Active() {
		return false
	}
	l.inflight.Add(1)
	return true
}

func (l *Loop) sample(ctx context.Context, trigger Trigger) {
	if !l.begin() {
		return
	}
	defer l.inflight.Done()

	s := l.attempt(ctx)
	s.Trigger = trigger
	s.At = time.Now()
	l.lastDone.Store(s.At.UnixNano())

	if !l.Active() || ctx.Err() != nil {
		l.metrics.IncDiscardedSamples()
		l.log.WithField("outcome", s.Outcome).Debug("perception: discarding sample completed after stop")
		return
	}
	l.metrics.ObservePerception(string(s.Outcome), string(trigger))
	l.sink(s)
}

// attempt runs one frame+detect cycle under the hard sample timeout. The detector call runs in its
// own goroutine so a provider that ignores ctx cannot hold the loop past the timeout.
func (l *Loop) attempt(ctx context.Context) Sample {
	sctx, cancel := context.WithTimeout(ctx, l.cfg.SampleTimeout)
	defer cancel()

	ch := make(chan Sample, 1)
	go func() { ch <- l.detect(sctx) }()

	select {
	case s := <-ch:
		return s
	case <-sctx.Done():
		return Sample{Outcome: OutcomeTimeout, Err: sctx.Err()}
	}
}

func (l *Loop) detect(ctx context.Context) Sample {
	frame, err := l.frames.NextFrame(ctx)
	if errors.Is(err, ErrNoFrame) || (err == nil && (frame.Width <= 0 || frame.Height <= 0)) {
		return Sample{Outcome: OutcomeNoData}
	}
	if err != nil {
		return failed(ctx, err)
	}

	faces, err := l.detector.Detect(ctx, frame)
	if err != nil {
		return failed(ctx, err)
	}
	if len(faces) == 0 {
		return Sample{Outcome: OutcomeNoFace}
	}
	return Sample{Outcome: OutcomeFace, Faces: faces}
}

func failed(ctx context.Context, err error) Sample {
	if ctx.Err() != nil {
		return Sample{Outcome: OutcomeTimeout, Err: err}
	}
	return Sample{Outcome: OutcomeError, Err: err}
}
// #endregion sample
