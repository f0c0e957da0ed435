package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// DefaultTimeout bounds a single submission attempt.
const DefaultTimeout = 15 * time.Second

// #region types
// Submitter persists a finished report and returns the ID it was stored under.
// Idempotency is not assumed: callers make exactly one attempt per report.
type Submitter interface {
	Name() string
	Submit(ctx context.Context, r interview.Report) (string, error)
}

// SubmitError describes a failed submission attempt.
type SubmitError struct {
	Backend string
	Cause   error
	Timeout bool
}

func (e *SubmitError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("submit to %s: timed out: %v", e.Backend, e.Cause)
	}
	return fmt.Sprintf("submit to %s: %v", e.Backend, e.Cause)
}

func (e *SubmitError) Unwrap() error {
	return e.Cause
}
// #endregion types

// #region submit
// Submit makes one bounded attempt to store r. Every failure is returned as a *SubmitError.
func Submit(ctx context.Context, s Submitter, r interview.Report, timeout time.Duration) (string, error) {
	if s == nil {
		return "", &SubmitError{Backend: "none", Cause: errors.New("no submitter configured")}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		id, err := s.Submit(sctx, r)
		ch <- result{id: id, err: err}
	}()

	// a backend that ignores ctx still cannot hold the caller past the timeout
	var res result
	select {
	case res = <-ch:
	case <-sctx.Done():
		res = result{err: sctx.Err()}
	}

	if res.err != nil {
		return "", &SubmitError{
			Backend: s.Name(),
			Cause:   res.err,
			Timeout: errors.Is(res.err, context.DeadlineExceeded),
		}
	}
	if res.id == "" {
		return "", &SubmitError{Backend: s.Name(), Cause: errors.New("backend returned an empty id")}
	}
	return res.id, nil
}
// #endregion submit
