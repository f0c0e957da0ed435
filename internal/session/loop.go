package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/interview-engine/internal/aggregate"
	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/scoring"
	"github.com/danielpatrickdp/interview-engine/internal/submit"
)

// #region run
// run is the single owner of session state. It returns once the session is terminal.
func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.end(ctx, EndCancelled)
			return
		case ev := <-c.events:
			if c.handle(ctx, ev) {
				return
			}
		}
	}
}

// handle applies one event and reports whether the session is now terminal.
func (c *Controller) handle(ctx context.Context, ev event) bool {
	switch e := ev.(type) {
	case timerTick:
		c.state.RemainingSeconds--
		if c.state.RemainingSeconds <= 0 {
			c.state.RemainingSeconds = 0
			c.end(ctx, EndTimeExpired)
			return true
		}

	case perceptionSample:
		if c.state.IsShuttingDown || !c.state.CameraEnabled {
			return false
		}
		c.tracker.Apply(e.sample)

	case transcriptFragment:
		if c.state.IsShuttingDown {
			return false
		}
		if e.fragment.Final {
			c.live = appendFragment(c.live, e.fragment.Text)
			c.interim = ""
			c.rescore()
		} else {
			c.interim = e.fragment.Text
		}
		if e.reply != nil {
			c.publish()
			e.reply <- nil
			return false
		}

	case answerEdited:
		c.live = e.text
		c.interim = ""
		c.rescore()

	case advanceRequest:
		last := c.state.Cursor >= len(c.questions)-1
		if last {
			c.end(ctx, EndCompleted)
			e.reply <- nil
			return true
		}
		sample := c.recordSample()
		c.state.Cursor++
		c.live = ""
		c.interim = ""
		c.rescore()
		c.journal(ctx, "advanced", sample)
		c.log.WithField("cursor", c.state.Cursor).Debug("session: advanced")
		c.publish()
		e.reply <- nil
		return false

	case thinkingRequest:
		c.setThinking(ctx, e.on)
		c.publish()
		e.reply <- nil
		return false

	case endRequest:
		c.end(ctx, e.reason)
		return true
	}

	c.publish()
	return false
}

func (c *Controller) setThinking(ctx context.Context, on bool) {
	if c.state.IsThinking == on {
		return
	}
	c.state.IsThinking = on
	if on {
		c.state.Phase = PhaseThinking
		if c.capture != nil {
			c.capture.Pause()
		}
	} else {
		c.state.Phase = PhaseActive
		if c.capture != nil {
			c.capture.Resume()
		}
	}
	c.journal(ctx, "thinking", map[string]bool{"on": on})
}
// #endregion run

// #region end
// end is the ordered shutdown. It runs at most once, inside the event loop, and always reaches a
// terminal phase whether or not perception or submission cooperate.
func (c *Controller) end(ctx context.Context, reason string) {
	if c.state.IsShuttingDown {
		return
	}
	log := c.log.WithField("reason", reason)
	log.Info("session: ending")

	// 1. perception and speech callbacks become no-ops
	c.state.IsShuttingDown = true
	c.state.Phase = PhaseEnding
	close(c.stopping)
	c.publish()
	c.journal(ctx, "ending", map[string]string{"reason": reason})

	// 2-4. camera off, timers cancelled explicitly, bounded wait for in-flight detection
	c.state.CameraEnabled = false
	if c.loop != nil {
		c.loop.Disable()
		c.loop.Stop()
		if !c.loop.Wait(c.cfg.ShutdownGrace) {
			log.Warn("session: in-flight detection outlived the shutdown grace period")
		}
	}

	// 5. final answer and sample
	c.recordSample()

	// 6.
	if c.capture != nil && !c.capture.StopWithin(c.cfg.ShutdownGrace) {
		log.Warn("session: speech recognizer outlived the shutdown grace period")
	}

	// 7-8.
	report := aggregate.BuildReport(aggregate.ReportInput{
		SessionID: c.id,
		Settings:  c.settings,
		Questions: c.questions,
		Answers:   c.answers,
		Samples:   c.agg.Samples(),
		EndReason: reason,
		StartedAt: c.startedAt,
		EndedAt:   time.Now().UTC(),
	})
	c.deps.Metrics.ObserveOverallScore(report.OverallScore)

	// 9.
	id, err := submit.Submit(context.WithoutCancel(ctx), c.deps.Submitter, report, c.cfg.SubmitTimeout)
	backend := "none"
	if c.deps.Submitter != nil {
		backend = c.deps.Submitter.Name()
	}
	if err != nil {
		c.state.Phase = PhaseSubmitFailed
		var se *submit.SubmitError
		result := "error"
		if errors.As(err, &se) && se.Timeout {
			result = "timeout"
		}
		c.deps.Metrics.ObserveSubmission(backend, result)
		c.journal(ctx, "submit_failed", map[string]string{"error": err.Error()})
		log.WithError(err).Error("session: report submission failed")
	} else {
		c.state.Phase = PhaseSubmitted
		c.deps.Metrics.ObserveSubmission(backend, "ok")
		c.journal(ctx, "submitted", map[string]string{"id": id, "report_id": report.ID})
		log.WithFields(logrus.Fields{"submission_id": id, "overall": report.OverallScore}).Info("session: report submitted")
	}
	c.deps.Metrics.IncSessionsEnded(reason)

	c.mu.Lock()
	c.report = report
	c.submitID = id
	c.err = err
	c.mu.Unlock()
	c.publish()
}
// #endregion end

// #region helpers
// recordSample freezes the current answer slot and appends its sample from live scores.
func (c *Controller) recordSample() interview.MetricSample {
	c.answers[c.state.Cursor] = c.live
	scores := c.rescore()
	sample := c.agg.Append(c.tracker.State().Confidence, scores.Relevance, scores.Communication)
	c.deps.Metrics.IncSamplesAppended()
	return sample
}

func (c *Controller) rescore() scoring.Scores {
	var phrases []string
	if c.state.Cursor < len(c.questions) {
		phrases = c.questions[c.state.Cursor].KeyPhrases
	}
	s, _ := c.engine.Update(c.state.Cursor, c.live, phrases)
	return s
}

// publish copies loop-owned state into the view read by Snapshot.
func (c *Controller) publish() {
	v := View{
		SessionID:     c.id,
		State:         c.state,
		QuestionCount: len(c.questions),
		Answer:        c.live,
		Interim:       c.interim,
		Scores:        c.engine.Scores(),
		Perception:    c.tracker.State(),
		Samples:       c.agg.Len(),
		Listening:     c.capture != nil && c.capture.Listening(),
	}
	if c.state.Cursor < len(c.questions) {
		v.Question = c.questions[c.state.Cursor]
	}
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

func appendFragment(live, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return live
	}
	if live == "" {
		return text
	}
	return live + " " + text
}
// #endregion helpers
