package speech

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// #region feed
// Feed is a Recognizer backed by pushed fragments. Each Start relays from the shared queue until
// its context ends; fragments pushed while no session is running wait in the queue.
type Feed struct {
	mu      sync.Mutex
	ch      chan Fragment
	pending []Fragment // taken off ch by a session that ended before delivering them
	closed  bool
}

// NewFeed returns a feed that queues up to buffer fragments.
func NewFeed(buffer int) *Feed {
	return &Feed{ch: make(chan Fragment, buffer)}
}

// Push queues a fragment. It reports false when the feed is closed or the queue is full.
func (f *Feed) Push(text string, final bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	select {
	case f.ch <- Fragment{Text: text, Final: final}:
		return true
	default:
		return false
	}
}

// Close ends the feed. Running sessions drain the queue and end; later Starts return
// ErrSourceClosed.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// Start implements Recognizer.
func (f *Feed) Start(ctx context.Context) (<-chan Fragment, error) {
	f.mu.Lock()
	closed := f.closed && len(f.ch) == 0 && len(f.pending) == 0
	f.mu.Unlock()
	if closed {
		return nil, ErrSourceClosed
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)
		pending := f.takePending()
		for i, frag := range pending {
			if !f.deliver(ctx, out, frag) {
				f.hold(pending[i+1:]...)
				return
			}
		}
		for {
			select {
			case <-ctx.Done():
				return
			case frag, ok := <-f.ch:
				if !ok {
					return
				}
				if !f.deliver(ctx, out, frag) {
					return
				}
			}
		}
	}()
	return out, nil
}

// deliver sends frag on out, holding it for the next session if ctx ends first.
func (f *Feed) deliver(ctx context.Context, out chan<- Fragment, frag Fragment) bool {
	if ctx.Err() == nil {
		select {
		case out <- frag:
			return true
		case <-ctx.Done():
		}
	}
	f.hold(frag)
	return false
}

func (f *Feed) hold(frags ...Fragment) {
	f.mu.Lock()
	f.pending = append(f.pending, frags...)
	f.mu.Unlock()
}

func (f *Feed) takePending() []Fragment {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.pending
	f.pending = nil
	return p
}
// #endregion feed

// #region line-recognizer
// NewLineRecognizer returns a Feed fed by r, one final fragment per non-blank line. The feed
// closes at EOF and is owned by its reader goroutine: do not Push to it or Close it.
func NewLineRecognizer(r io.Reader) *Feed {
	f := NewFeed(64)
	go func() {
		defer f.Close()
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			f.ch <- Fragment{Text: line, Final: true}
		}
	}()
	return f
}
// #endregion line-recognizer
