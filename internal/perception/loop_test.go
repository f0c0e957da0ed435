package perception

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-engine/internal/scoring"
	"github.com/danielpatrickdp/interview-engine/internal/telemetry"
)

// #region mocks
type staticFrames struct {
	frame Frame
	err   error
}

func (s staticFrames) NextFrame(context.Context) (Frame, error) {
	return s.frame, s.err
}

var readyFrame = staticFrames{frame: Frame{Width: 640, Height: 480, Format: "raw"}}

type mockDetector struct {
	faces []Face
	err   error
}

func (m mockDetector) Detect(context.Context, Frame) ([]Face, error) {
	return m.faces, m.err
}

// blockingDetector signals entered and then ignores ctx until release is closed.
type blockingDetector struct {
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newBlockingDetector() *blockingDetector {
	return &blockingDetector{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingDetector) Detect(context.Context, Frame) ([]Face, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return []Face{{Expressions: map[scoring.Expression]float64{scoring.ExpressionHappy: 1}}}, nil
}

type collector struct {
	ch chan Sample
}

func newCollector() *collector {
	return &collector{ch: make(chan Sample, 64)}
}

func (c *collector) sink(s Sample) {
	select {
	case c.ch <- s:
	default:
	}
}

func (c *collector) next(t *testing.T) Sample {
	t.Helper()
	select {
	case s := <-c.ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sample")
		return Sample{}
	}
}

func fastConfig() Config {
	return Config{
		PollInterval:     5 * time.Millisecond,
		SampleTimeout:    200 * time.Millisecond,
		WatchdogInterval: time.Hour,
		StallAfter:       time.Hour,
	}
}
// #endregion mocks

func TestLoop_PollEmitsFaceSamples(t *testing.T) {
	det := mockDetector{faces: []Face{{Expressions: map[scoring.Expression]float64{scoring.ExpressionHappy: 0.7}}}}
	c := newCollector()
	l := NewLoop(fastConfig(), readyFrame, det, c.sink)
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	s := c.next(t)
	assert.Equal(t, OutcomeFace, s.Outcome)
	assert.Equal(t, TriggerPoll, s.Trigger)
	assert.Len(t, s.Faces, 1)
	assert.False(t, s.At.IsZero())
}

func TestLoop_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		frames   FrameSource
		detector Detector
		want     Outcome
	}{
		{"no camera", NoCamera{}, NoFaces{}, OutcomeNoData},
		{"zero dimensions", staticFrames{}, NoFaces{}, OutcomeNoData},
		{"no faces", readyFrame, NoFaces{}, OutcomeNoFace},
		{"frame error", staticFrames{err: errors.New("device busy")}, NoFaces{}, OutcomeError},
		{"detector error", readyFrame, mockDetector{err: errors.New("model not loaded")}, OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCollector()
			l := NewLoop(fastConfig(), tt.frames, tt.detector, c.sink)
			require.NoError(t, l.Start(context.Background()))
			defer l.Stop()

			assert.Equal(t, tt.want, c.next(t).Outcome)
		})
	}
}

func TestLoop_SampleTimeout(t *testing.T) {
	det := newBlockingDetector()
	defer close(det.release)

	cfg := fastConfig()
	cfg.SampleTimeout = 20 * time.Millisecond
	c := newCollector()
	l := NewLoop(cfg, readyFrame, det, c.sink)
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	s := c.next(t)
	assert.Equal(t, OutcomeTimeout, s.Outcome)
	assert.ErrorIs(t, s.Err, context.DeadlineExceeded)
}

func TestLoop_WatchdogForcesSample(t *testing.T) {
	cfg := Config{
		PollInterval:     time.Hour,
		SampleTimeout:    200 * time.Millisecond,
		WatchdogInterval: 10 * time.Millisecond,
		StallAfter:       20 * time.Millisecond,
	}
	metrics := telemetry.NewMetrics(nil)
	c := newCollector()
	l := NewLoop(cfg, readyFrame, NoFaces{}, c.sink, WithMetrics(metrics))
	require.NoError(t, l.Start(context.Background()))
	defer l.Stop()

	s := c.next(t)
	assert.Equal(t, TriggerWatchdog, s.Trigger)
	assert.Equal(t, OutcomeNoFace, s.Outcome)
}

func TestLoop_StopDiscardsInFlightSample(t *testing.T) {
	det := newBlockingDetector()
	cfg := fastConfig()
	cfg.SampleTimeout = 5 * time.Second
	c := newCollector()
	l := NewLoop(cfg, readyFrame, det, c.sink)
	require.NoError(t, l.Start(context.Background()))

	<-det.entered
	l.Stop()
	close(det.release)

	assert.True(t, l.Wait(time.Second))
	assert.False(t, l.Active())
	select {
	case s := <-c.ch:
		t.Fatalf("expected no sample after stop, got %+v", s)
	default:
	}
}

func TestLoop_DisableStopsPolling(t *testing.T) {
	c := newCollector()
	l := NewLoop(fastConfig(), readyFrame, NoFaces{}, c.sink)
	require.NoError(t, l.Start(context.Background()))
	c.next(t)

	l.Disable()
	assert.False(t, l.Active())
	l.Stop()
	assert.True(t, l.Wait(time.Second))

	// drain anything that completed before Disable
	for len(c.ch) > 0 {
		<-c.ch
	}
	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, c.ch)
}

func TestLoop_StartErrors(t *testing.T) {
	l := NewLoop(fastConfig(), NoCamera{}, NoFaces{}, func(Sample) {})
	require.NoError(t, l.Start(context.Background()))
	assert.ErrorIs(t, l.Start(context.Background()), ErrAlreadyStarted)

	l.Stop()
	l.Stop()
	assert.True(t, l.Wait(time.Second))
	assert.ErrorIs(t, l.Start(context.Background()), ErrStopped)
}

func TestLoop_WaitBeforeStart(t *testing.T) {
	l := NewLoop(fastConfig(), NoCamera{}, NoFaces{}, func(Sample) {})
	assert.True(t, l.Wait(10*time.Millisecond))
}
