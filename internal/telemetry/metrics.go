// Package telemetry exposes Prometheus metrics for interview sessions.
//
// All Metrics methods are safe to call on a nil receiver so components can run without metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "interview"

// #region metrics
// Metrics holds the session engine's collectors.
type Metrics struct {
	sessionsStarted   prometheus.Counter
	sessionsEnded     *prometheus.CounterVec
	questionFallbacks prometheus.Counter
	samplesAppended   prometheus.Counter
	perceptionSamples *prometheus.CounterVec
	discardedSamples  prometheus.Counter
	watchdogKicks     prometheus.Counter
	submissions       *prometheus.CounterVec
	overallScore      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Interview sessions that reached the active phase.",
		}),
		sessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Interview sessions that entered shutdown, by end reason.",
		}, []string{"reason"}),
		questionFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "question_fallbacks_total",
			Help:      "Sessions that used the default question bank.",
		}),
		samplesAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_samples_total",
			Help:      "Per-question metric samples appended to session histories.",
		}),
		perceptionSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "perception",
			Name:      "samples_total",
			Help:      "Completed perception samples by outcome and trigger.",
		}, []string{"outcome", "trigger"}),
		discardedSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "perception",
			Name:      "discarded_samples_total",
			Help:      "Samples that completed after the loop stopped and were dropped.",
		}),
		watchdogKicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "perception",
			Name:      "watchdog_kicks_total",
			Help:      "Out-of-band samples forced by the stall watchdog.",
		}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Report submissions by backend and result.",
		}, []string{"backend", "result"}),
		overallScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Overall score of finished sessions.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.sessionsStarted,
			m.sessionsEnded,
			m.questionFallbacks,
			m.samplesAppended,
			m.perceptionSamples,
			m.discardedSamples,
			m.watchdogKicks,
			m.submissions,
			m.overallScore,
		)
	}
	return m
}
// #endregion metrics

// #region increments
func (m *Metrics) IncSessionsStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) IncSessionsEnded(reason string) {
	if m == nil {
		return
	}
	m.sessionsEnded.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncQuestionFallback() {
	if m == nil {
		return
	}
	m.questionFallbacks.Inc()
}

func (m *Metrics) IncSamplesAppended() {
	if m == nil {
		return
	}
	m.samplesAppended.Inc()
}

func (m *Metrics) ObservePerception(outcome, trigger string) {
	if m == nil {
		return
	}
	m.perceptionSamples.WithLabelValues(outcome, trigger).Inc()
}

func (m *Metrics) IncDiscardedSamples() {
	if m == nil {
		return
	}
	m.discardedSamples.Inc()
}

func (m *Metrics) IncWatchdogKicks() {
	if m == nil {
		return
	}
	m.watchdogKicks.Inc()
}

// ObserveSubmission records a submission attempt. result is "ok", "error" or "timeout".
func (m *Metrics) ObserveSubmission(backend, result string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(backend, result).Inc()
}

func (m *Metrics) ObserveOverallScore(score int) {
	if m == nil {
		return
	}
	m.overallScore.Observe(float64(score))
}
// #endregion increments
