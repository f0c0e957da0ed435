package session

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/logging"
	"github.com/danielpatrickdp/interview-engine/internal/perception"
	"github.com/danielpatrickdp/interview-engine/internal/questions"
	"github.com/danielpatrickdp/interview-engine/internal/scoring"
	"github.com/danielpatrickdp/interview-engine/internal/speech"
	"github.com/danielpatrickdp/interview-engine/internal/submit"
	"github.com/danielpatrickdp/interview-engine/internal/telemetry"
)

// #region errors
var (
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrEnded          = errors.New("session has ended")
	ErrNotFinished    = errors.New("session has not finished")
)
// #endregion errors

// #region phase
// Phase is the lifecycle state of a session.
type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseActive       Phase = "active"
	PhaseThinking     Phase = "thinking"
	PhaseEnding       Phase = "ending"
	PhaseSubmitted    Phase = "submitted"
	PhaseSubmitFailed Phase = "submit_failed"
)

// Terminal reports whether no further transitions can happen.
func (p Phase) Terminal() bool {
	return p == PhaseSubmitted || p == PhaseSubmitFailed
}

// End reasons recorded on the report.
const (
	EndCompleted   = "completed"
	EndTimeExpired = "time_expired"
	EndTerminated  = "terminated"
	EndCancelled   = "cancelled"
)
// #endregion phase

// #region state
// State is the session state owned by the event loop.
type State struct {
	Cursor           int   `json:"cursor"`
	RemainingSeconds int   `json:"remaining_seconds"`
	Phase            Phase `json:"phase"`
	IsThinking       bool  `json:"is_thinking"`
	CameraEnabled    bool  `json:"camera_enabled"`
	IsShuttingDown   bool  `json:"is_shutting_down"`
}

// View is a read-only snapshot for display.
type View struct {
	SessionID     string             `json:"session_id"`
	State         State              `json:"state"`
	QuestionCount int                `json:"question_count"`
	Question      interview.Question `json:"question"`
	Answer        string             `json:"answer"`
	Interim       string             `json:"interim"`
	Scores        scoring.Scores     `json:"scores"`
	Perception    perception.State   `json:"perception"`
	Samples       int                `json:"samples"`
	Listening     bool               `json:"listening"`
}
// #endregion state

// #region config
// Config holds lifecycle timing and the component configs the controller builds from.
type Config struct {
	Tick            time.Duration // countdown resolution; one tick is one second of session time
	ShutdownGrace   time.Duration // wait for in-flight detection during End
	SubmitTimeout   time.Duration
	QuestionTimeout time.Duration
	Perception      perception.Config
	Speech          speech.Config
}

// DefaultConfig returns the production timing.
func DefaultConfig() Config {
	return Config{
		Tick:            time.Second,
		ShutdownGrace:   300 * time.Millisecond,
		SubmitTimeout:   submit.DefaultTimeout,
		QuestionTimeout: 10 * time.Second,
		Perception:      perception.DefaultConfig(),
		Speech:          speech.DefaultConfig(),
	}
}
// #endregion config

// #region deps
// Journal records lifecycle transitions. *logging.Journal satisfies it.
type Journal interface {
	Record(ctx context.Context, entry logging.Entry) error
}

// Deps are the collaborators a session talks to. Only Submitter is required; a nil Questions
// provider uses the built-in bank, a nil Frames source runs without a camera and a nil
// Recognizer runs without speech capture.
type Deps struct {
	Questions  questions.Provider
	Frames     perception.FrameSource
	Detector   perception.Detector
	Recognizer speech.Recognizer
	Submitter  submit.Submitter
	Journal    Journal
	Metrics    *telemetry.Metrics
	Log        logrus.FieldLogger
}
// #endregion deps

// #region events
type event interface {
	eventName() string
}

type timerTick struct{}

type perceptionSample struct {
	sample perception.Sample
}

// transcriptFragment carries a reply only when it was typed; recognized fragments are fire and forget.
type transcriptFragment struct {
	fragment speech.Fragment
	reply    chan error
}

type answerEdited struct {
	text string
}

type advanceRequest struct {
	reply chan error
}

type thinkingRequest struct {
	on    bool
	reply chan error
}

type endRequest struct {
	reason string
}

func (timerTick) eventName() string          { return "timer_tick" }
func (perceptionSample) eventName() string   { return "perception_sample" }
func (transcriptFragment) eventName() string { return "transcript_fragment" }
func (answerEdited) eventName() string       { return "answer_edited" }
func (advanceRequest) eventName() string     { return "advance" }
func (thinkingRequest) eventName() string    { return "set_thinking" }
func (endRequest) eventName() string         { return "end" }
// #endregion events
