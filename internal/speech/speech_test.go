package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// #region mocks
// scripted emits its fragments and then ends on its own.
type scripted struct {
	mu       sync.Mutex
	starts   int
	frags    []Fragment
	startErr error
}

func (s *scripted) Start(context.Context) (<-chan Fragment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.startErr != nil {
		return nil, s.startErr
	}
	ch := make(chan Fragment, len(s.frags))
	for _, f := range s.frags {
		ch <- f
	}
	close(ch)
	return ch, nil
}

func (s *scripted) Starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

// endless runs until its context is cancelled.
type endless struct {
	mu     sync.Mutex
	starts int
}

func (e *endless) Start(ctx context.Context) (<-chan Fragment, error) {
	e.mu.Lock()
	e.starts++
	e.mu.Unlock()
	ch := make(chan Fragment)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (e *endless) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// deaf ignores cancellation; its channel closes only when the test says so.
type deaf struct {
	ch chan Fragment
}

func (d *deaf) Start(context.Context) (<-chan Fragment, error) {
	return d.ch, nil
}

type fragSink struct {
	mu    sync.Mutex
	frags []Fragment
}

func (f *fragSink) add(fr Fragment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frags = append(f.frags, fr)
}

func (f *fragSink) all() []Fragment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Fragment(nil), f.frags...)
}

func fastCfg() Config {
	return Config{RestartDelay: time.Millisecond}
}
// #endregion mocks

// #region capture-tests
func TestCapture_RelaysFromFeed(t *testing.T) {
	feed := NewFeed(8)
	sink := &fragSink{}
	c := NewCapture(fastCfg(), feed, sink.add, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	feed.Push("react hooks", false)
	feed.Push("react hooks are great", true)

	require.Eventually(t, func() bool { return len(sink.all()) == 2 }, time.Second, 5*time.Millisecond)
	got := sink.all()
	assert.False(t, got[0].Final)
	assert.Equal(t, Fragment{Text: "react hooks are great", Final: true}, got[1])
}

func TestCapture_RestartsAfterSpontaneousEnd(t *testing.T) {
	rec := &scripted{frags: []Fragment{{Text: "hi", Final: true}}}
	sink := &fragSink{}
	c := NewCapture(fastCfg(), rec, sink.add, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	require.Eventually(t, func() bool { return rec.Starts() >= 3 }, time.Second, 2*time.Millisecond)
	assert.GreaterOrEqual(t, c.Restarts(), 2)
	assert.GreaterOrEqual(t, len(sink.all()), 2)
}

func TestCapture_NoRestartAfterStop(t *testing.T) {
	rec := &scripted{}
	c := NewCapture(Config{RestartDelay: 5 * time.Millisecond}, rec, func(Fragment) {}, nil)
	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return rec.Starts() >= 1 }, time.Second, time.Millisecond)

	c.Stop()
	n := rec.Starts()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, rec.Starts())
	assert.False(t, c.Listening())

	// idempotent
	c.Stop()
}

func TestCapture_StopWithinAbandonsDeafRecognizer(t *testing.T) {
	rec := &deaf{ch: make(chan Fragment)}
	sink := &fragSink{}
	c := NewCapture(fastCfg(), rec, sink.add, nil)
	require.NoError(t, c.Start(context.Background()))

	rec.ch <- Fragment{Text: "before", Final: true}
	require.Eventually(t, func() bool { return len(sink.all()) == 1 }, time.Second, time.Millisecond)

	start := time.Now()
	assert.False(t, c.StopWithin(20*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, c.Listening())

	// the abandoned goroutine relays nothing further
	rec.ch <- Fragment{Text: "after", Final: true}
	close(rec.ch)
	assert.True(t, c.StopWithin(time.Second))
	assert.Equal(t, []Fragment{{Text: "before", Final: true}}, sink.all())
}

func TestCapture_StopWithinCooperativeRecognizer(t *testing.T) {
	c := NewCapture(fastCfg(), &endless{}, func(Fragment) {}, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.StopWithin(time.Second))
}

func TestCapture_PauseAndResume(t *testing.T) {
	rec := &endless{}
	c := NewCapture(fastCfg(), rec, func(Fragment) {}, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()
	require.Eventually(t, func() bool { return rec.Starts() == 1 }, time.Second, time.Millisecond)

	c.Pause()
	assert.False(t, c.Listening())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, rec.Starts())
	assert.Equal(t, 0, c.Restarts())

	c.Resume()
	assert.True(t, c.Listening())
	require.Eventually(t, func() bool { return rec.Starts() == 2 }, time.Second, time.Millisecond)
}

func TestCapture_PausedFragmentsAreNotRelayedUntilResume(t *testing.T) {
	feed := NewFeed(8)
	sink := &fragSink{}
	c := NewCapture(fastCfg(), feed, sink.add, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	c.Pause()
	time.Sleep(10 * time.Millisecond)
	feed.Push("while thinking", true)
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sink.all())

	c.Resume()
	require.Eventually(t, func() bool { return len(sink.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "while thinking", sink.all()[0].Text)
}

func TestCapture_StartErrorRetries(t *testing.T) {
	rec := &scripted{startErr: errors.New("mic busy")}
	c := NewCapture(fastCfg(), rec, func(Fragment) {}, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()

	require.Eventually(t, func() bool { return rec.Starts() >= 2 }, time.Second, time.Millisecond)
}

func TestCapture_SourceClosedEndsCapture(t *testing.T) {
	feed := NewFeed(1)
	feed.Close()
	c := NewCapture(fastCfg(), feed, func(Fragment) {}, nil)
	require.NoError(t, c.Start(context.Background()))

	select {
	case <-c.done:
	case <-time.After(time.Second):
		t.Fatal("capture did not end on closed source")
	}
	c.Stop()
}

func TestCapture_StartTwice(t *testing.T) {
	c := NewCapture(fastCfg(), &endless{}, func(Fragment) {}, nil)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyStarted)
}

func TestCapture_StopBeforeStart(t *testing.T) {
	c := NewCapture(fastCfg(), &endless{}, func(Fragment) {}, nil)
	c.Stop()
	assert.False(t, c.Listening())
}
// #endregion capture-tests

// #region feed-tests
func TestFeed_PushAfterClose(t *testing.T) {
	f := NewFeed(1)
	assert.True(t, f.Push("a", true))
	assert.False(t, f.Push("b", true), "queue full")
	f.Close()
	f.Close()
	assert.False(t, f.Push("c", true))
}

func TestFeed_HoldsFragmentsAcrossCancelledSession(t *testing.T) {
	f := NewFeed(2)
	require.True(t, f.Push("a", true))
	require.True(t, f.Push("b", false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ch, err := f.Start(ctx)
	require.NoError(t, err)
	for range ch {
		t.Fatal("cancelled session delivered a fragment")
	}

	f.Close()
	ch, err = f.Start(context.Background())
	require.NoError(t, err)
	var got []Fragment
	for frag := range ch {
		got = append(got, frag)
	}
	assert.Equal(t, []Fragment{{Text: "a", Final: true}, {Text: "b"}}, got)
}

func TestLineRecognizer(t *testing.T) {
	rec := NewLineRecognizer(strings.NewReader("first line\n\n  second line  \n"))
	ch, err := rec.Start(context.Background())
	require.NoError(t, err)

	var got []Fragment
	for f := range ch {
		got = append(got, f)
	}
	assert.Equal(t, []Fragment{{Text: "first line", Final: true}, {Text: "second line", Final: true}}, got)

	_, err = rec.Start(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}
// #endregion feed-tests
