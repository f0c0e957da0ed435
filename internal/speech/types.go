package speech

import (
	"context"
	"errors"
	"time"
)

// #region errors
var (
	// ErrSourceClosed is returned by Recognizer.Start when the source can never deliver again.
	// Capture stops restarting when it sees it.
	ErrSourceClosed = errors.New("speech source closed")

	ErrAlreadyStarted = errors.New("speech capture already started")
)
// #endregion errors

// #region capabilities
// Fragment is one piece of transcript. Interim fragments may be revised by later ones; final
// fragments are committed to the answer.
type Fragment struct {
	Text  string
	Final bool
}

// Recognizer is a push-based speech-to-text session. Start returns a channel of fragments that
// the recognizer closes when the session ends, either on its own or because ctx was cancelled.
type Recognizer interface {
	Start(ctx context.Context) (<-chan Fragment, error)
}
// #endregion capabilities

// #region config
// Config holds capture restart behavior.
type Config struct {
	RestartDelay time.Duration // pause between a session ending and the restart
}

// DefaultConfig returns the production restart cadence.
func DefaultConfig() Config {
	return Config{RestartDelay: 250 * time.Millisecond}
}
// #endregion config
