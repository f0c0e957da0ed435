package aggregate

import (
	"math"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/scoring"
)

// Overall score weights.
const (
	WeightConfidence    = 0.3
	WeightRelevance     = 0.4
	WeightCommunication = 0.3
)

// #region aggregator
// Aggregator accumulates one MetricSample per question transition.
// Not safe for concurrent use; the session event loop owns it.
type Aggregator struct {
	samples []interview.MetricSample
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// Append records a sample. Scores are clamped to [0,100].
func (a *Aggregator) Append(confidence, relevance, communication int) interview.MetricSample {
	s := interview.MetricSample{
		Confidence:    scoring.Clamp(confidence, 0, 100),
		Relevance:     scoring.Clamp(relevance, 0, 100),
		Communication: scoring.Clamp(communication, 0, 100),
	}
	a.samples = append(a.samples, s)
	return s
}

// Len returns the number of recorded samples.
func (a *Aggregator) Len() int {
	return len(a.samples)
}

// Samples returns a copy of the history.
func (a *Aggregator) Samples() []interview.MetricSample {
	out := make([]interview.MetricSample, len(a.samples))
	copy(out, a.samples)
	return out
}

// Average returns the rounded mean of m over the history, 0 when empty.
func (a *Aggregator) Average(m interview.Metric) int {
	return Average(a.samples, m)
}

// Averages returns all three rounded means.
func (a *Aggregator) Averages() interview.Averages {
	return AveragesOf(a.samples)
}
// #endregion aggregator

// #region pure
// Average returns the rounded arithmetic mean of m over samples, 0 when empty.
func Average(samples []interview.MetricSample, m interview.Metric) int {
	if len(samples) == 0 {
		return 0
	}
	sum := 0
	for _, s := range samples {
		sum += s.Value(m)
	}
	return int(math.Round(float64(sum) / float64(len(samples))))
}

// AveragesOf computes all three means over samples.
func AveragesOf(samples []interview.MetricSample) interview.Averages {
	return interview.Averages{
		Confidence:    Average(samples, interview.MetricConfidence),
		Relevance:     Average(samples, interview.MetricRelevance),
		Communication: Average(samples, interview.MetricCommunication),
	}
}

// Overall is round(0.3·confidence + 0.4·relevance + 0.3·communication).
func Overall(avg interview.Averages) int {
	v := WeightConfidence*float64(avg.Confidence) +
		WeightRelevance*float64(avg.Relevance) +
		WeightCommunication*float64(avg.Communication)
	return int(math.Round(v))
}
// #endregion pure
