package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-engine/internal/aggregate"
	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/logging"
	"github.com/danielpatrickdp/interview-engine/internal/perception"
	"github.com/danielpatrickdp/interview-engine/internal/questions"
	"github.com/danielpatrickdp/interview-engine/internal/scoring"
	"github.com/danielpatrickdp/interview-engine/internal/speech"
)

// #region controller-struct
// Controller runs one interview session. All session state is owned by a single event-loop
// goroutine; timers, perception samples and transcript fragments reach it as typed events.
type Controller struct {
	cfg  Config
	deps Deps
	id   string
	log  logrus.FieldLogger

	events   chan event
	stopping chan struct{} // closed when shutdown begins; event producers stop on it
	done     chan struct{} // closed once the session is terminal

	mu       sync.Mutex // guards started, view and the result fields
	started  bool
	view     View
	report   interview.Report
	submitID string
	err      error

	// owned by the event loop after Start
	state     State
	settings  interview.Settings
	questions interview.QuestionSet
	answers   []string
	live      string
	interim   string
	startedAt time.Time
	tracker   *perception.Tracker
	engine    *scoring.Engine
	agg       *aggregate.Aggregator
	loop      *perception.Loop
	capture   *speech.Capture
}

// New creates an idle session controller.
func New(cfg Config, deps Deps) *Controller {
	id := uuid.New().String()
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{
		cfg:      cfg,
		deps:     deps,
		id:       id,
		log:      log.WithField("session_id", id),
		events:   make(chan event, 16),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		tracker:  perception.NewTracker(),
		engine:   scoring.NewEngine(),
		agg:      aggregate.New(),
	}
}

// ID returns the session ID.
func (c *Controller) ID() string {
	return c.id
}
// #endregion controller-struct

// #region start
// Start normalises settings, loads the question set (falling back to the built-in bank on any
// provider failure), then starts the countdown, perception, speech capture and the event loop.
// Cancelling ctx ends the session.
func (c *Controller) Start(ctx context.Context, settings interview.Settings) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.view = View{SessionID: c.id, State: State{Phase: PhaseLoading}}
	c.mu.Unlock()

	c.settings = settings.Normalize()
	c.startedAt = time.Now().UTC()

	set, err := questions.Resolve(ctx, c.deps.Questions, questions.Request{
		Position:   c.settings.Position,
		Skills:     c.settings.Skills,
		Experience: c.settings.Experience,
		Count:      int(c.settings.QuestionCount),
	}, c.cfg.QuestionTimeout)
	if err != nil {
		c.log.WithError(err).Warn("session: question provider failed, using default questions")
		c.deps.Metrics.IncQuestionFallback()
		c.journal(ctx, "question_fallback", map[string]any{"error": err.Error(), "count": len(set)})
	}
	c.questions = set
	c.answers = make([]string, len(set))

	c.state = State{
		Cursor:           0,
		RemainingSeconds: c.settings.DurationSeconds(),
		Phase:            PhaseActive,
		CameraEnabled:    c.deps.Frames != nil,
	}
	c.rescore()

	if c.state.CameraEnabled {
		detector := c.deps.Detector
		if detector == nil {
			detector = perception.NoFaces{}
		}
		c.loop = perception.NewLoop(c.cfg.Perception, c.deps.Frames, detector,
			func(s perception.Sample) { c.post(perceptionSample{sample: s}) },
			perception.WithLogger(c.log), perception.WithMetrics(c.deps.Metrics))
		if err := c.loop.Start(ctx); err != nil {
			c.log.WithError(err).Warn("session: perception loop did not start")
			c.state.CameraEnabled = false
		}
	}

	if c.deps.Recognizer != nil {
		c.capture = speech.NewCapture(c.cfg.Speech, c.deps.Recognizer,
			func(f speech.Fragment) { c.post(transcriptFragment{fragment: f}) }, c.log)
		if err := c.capture.Start(ctx); err != nil {
			c.log.WithError(err).Warn("session: speech capture did not start")
		}
	}

	c.publish()
	c.deps.Metrics.IncSessionsStarted()
	c.journal(ctx, "started", map[string]any{
		"settings":  c.settings,
		"questions": len(c.questions),
		"seconds":   c.state.RemainingSeconds,
	})
	c.log.WithFields(logrus.Fields{
		"questions": len(c.questions),
		"seconds":   c.state.RemainingSeconds,
		"position":  c.settings.Position,
	}).Info("session: started")

	go c.countdown()
	go c.run(ctx)
	return nil
}

// countdown posts one tick per Tick until shutdown. It never pauses.
func (c *Controller) countdown() {
	t := time.NewTicker(c.cfg.Tick)
	defer t.Stop()
	for {
		select {
		case <-c.stopping:
			return
		case <-t.C:
			if !c.post(timerTick{}) {
				return
			}
		}
	}
}
// #endregion start

// #region commands
// Advance freezes the current answer, records its sample and moves to the next question, or
// ends the session after the last one.
func (c *Controller) Advance() error {
	if !c.isStarted() {
		return ErrNotStarted
	}
	reply := make(chan error, 1)
	if !c.post(advanceRequest{reply: reply}) {
		return ErrEnded
	}
	err, ok := await(reply, c.done)
	if !ok {
		return ErrEnded
	}
	return err
}

// SetThinking toggles thinking mode. Thinking pauses speech capture but not the countdown.
func (c *Controller) SetThinking(on bool) error {
	if !c.isStarted() {
		return ErrNotStarted
	}
	reply := make(chan error, 1)
	if !c.post(thinkingRequest{on: on, reply: reply}) {
		return ErrEnded
	}
	err, ok := await(reply, c.done)
	if !ok {
		return ErrEnded
	}
	return err
}

// SetAnswer replaces the live answer text with typed input.
func (c *Controller) SetAnswer(text string) error {
	if !c.isStarted() {
		return ErrNotStarted
	}
	if !c.post(answerEdited{text: text}) {
		return ErrEnded
	}
	return nil
}

// AppendTranscript appends text to the live answer as a final transcript fragment and returns
// once the event loop has applied it, so a following Advance freezes it under this question.
func (c *Controller) AppendTranscript(text string) error {
	if !c.isStarted() {
		return ErrNotStarted
	}
	reply := make(chan error, 1)
	if !c.post(transcriptFragment{fragment: speech.Fragment{Text: text, Final: true}, reply: reply}) {
		return ErrEnded
	}
	err, ok := await(reply, c.done)
	if !ok {
		return ErrEnded
	}
	return err
}

// End terminates the session and blocks until it is terminal. Calls after shutdown has begun
// only wait.
func (c *Controller) End() error {
	if !c.isStarted() {
		return ErrNotStarted
	}
	c.post(endRequest{reason: EndTerminated})
	<-c.done
	return nil
}
// #endregion commands

// #region queries
// Snapshot returns the latest published view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Done is closed once the session reaches Submitted or SubmitFailed.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Result returns the final report, the ID the submission backend assigned and the submission
// error, if any. The report is valid even when the submission failed.
func (c *Controller) Result() (interview.Report, string, error) {
	select {
	case <-c.done:
	default:
		return interview.Report{}, "", ErrNotFinished
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report, c.submitID, c.err
}

func (c *Controller) isStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}
// #endregion queries

// #region plumbing
// post delivers ev to the event loop. It reports false once shutdown has begun.
func (c *Controller) post(ev event) bool {
	select {
	case <-c.stopping:
		return false
	default:
	}
	select {
	case c.events <- ev:
		return true
	case <-c.stopping:
		return false
	}
}

// await waits for a reply, giving up once the loop has exited without handling the request.
func await[T any](reply <-chan T, done <-chan struct{}) (T, bool) {
	select {
	case v := <-reply:
		return v, true
	case <-done:
		select {
		case v := <-reply:
			return v, true
		default:
			var zero T
			return zero, false
		}
	}
}

func (c *Controller) journal(ctx context.Context, kind string, detail any) {
	if c.deps.Journal == nil {
		return
	}
	entry := logging.Entry{
		SessionID: c.id,
		Kind:      kind,
		Phase:     string(c.state.Phase),
		Cursor:    c.state.Cursor,
	}
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			entry.DetailJSON = string(b)
		}
	}
	if err := c.deps.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		c.log.WithError(err).WithField("kind", kind).Warn("session: journal write failed")
	}
}
// #endregion plumbing
