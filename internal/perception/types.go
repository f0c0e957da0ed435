package perception

import (
	"context"
	"errors"
	"time"

	"github.com/danielpatrickdp/interview-engine/internal/scoring"
)

// #region errors
// ErrNoFrame reports that the video signal has no frame dimensions yet. It is "no data", not a failure.
var ErrNoFrame = errors.New("frame dimensions not ready")
// #endregion errors

// #region capabilities
// Frame is a single still from the candidate's camera.
type Frame struct {
	Width  int
	Height int
	Format string // "jpeg" | "png" | "webp" | "raw"
	Data   []byte
}

// FrameSource abstracts the camera so perception can be tested without one.
type FrameSource interface {
	NextFrame(ctx context.Context) (Frame, error)
}

// Face is one detected face with per-label expression intensities in [0,1].
type Face struct {
	Expressions map[scoring.Expression]float64
}

// Detector abstracts the face/expression model. May return an empty slice.
type Detector interface {
	Detect(ctx context.Context, frame Frame) ([]Face, error)
}
// #endregion capabilities

// #region sample
// Outcome classifies a completed sample attempt.
type Outcome string

const (
	OutcomeFace    Outcome = "face"
	OutcomeNoFace  Outcome = "no_face"
	OutcomeNoData  Outcome = "no_data"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
)

// Trigger records what started a sample attempt.
type Trigger string

const (
	TriggerPoll     Trigger = "poll"
	TriggerWatchdog Trigger = "watchdog"
)

// Sample is the result of one detection attempt, delivered to the loop's sink.
type Sample struct {
	Outcome Outcome
	Faces   []Face
	Trigger Trigger
	Err     error
	At      time.Time
}
// #endregion sample

// #region state
// MaxFaceHits caps State.ConsecutiveFaceHits.
const MaxFaceHits = 10

// State is the smoothed perception output read by the session view and report layer.
type State struct {
	Confidence          int                `json:"confidence"`
	Expression          scoring.Expression `json:"expression"`
	ConsecutiveFaceHits int                `json:"consecutive_face_hits"`
}

// InitialState is the state before any sample completes.
func InitialState() State {
	return State{Expression: scoring.ExpressionUnknown}
}
// #endregion state

// #region config
// Config holds the loop cadence and bounds.
type Config struct {
	PollInterval     time.Duration // regular sampling cadence
	SampleTimeout    time.Duration // hard bound per sample
	WatchdogInterval time.Duration // how often the watchdog checks for a stall
	StallAfter       time.Duration // age of the last completed sample that counts as a stall
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		PollInterval:     500 * time.Millisecond,
		SampleTimeout:    time.Second,
		WatchdogInterval: 3 * time.Second,
		StallAfter:       3 * time.Second,
	}
}
// #endregion config
