package aggregate

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// #region feedback
// tieOrder breaks ties for both the strongest and weakest metric.
var tieOrder = []interview.Metric{
	interview.MetricConfidence,
	interview.MetricCommunication,
	interview.MetricRelevance,
}

var strengthText = map[interview.Metric]string{
	interview.MetricConfidence:    "Confident presence: you stayed composed and engaged on camera.",
	interview.MetricCommunication: "Clear communication: your answers were well structured and easy to follow.",
	interview.MetricRelevance:     "On-topic answers: you covered the key points the questions asked about.",
}

var improvementText = map[interview.Metric]string{
	interview.MetricConfidence:    "Work on projecting confidence: keep eye contact and a relaxed expression.",
	interview.MetricCommunication: "Tighten your delivery: use complete sentences and drop filler words.",
	interview.MetricRelevance:     "Address the core concepts each question targets more directly.",
}

// Strongest returns the metric with the highest average.
func Strongest(avg interview.Averages) interview.Metric {
	best := tieOrder[0]
	for _, m := range tieOrder[1:] {
		if value(avg, m) > value(avg, best) {
			best = m
		}
	}
	return best
}

// Weakest returns the metric with the lowest average.
func Weakest(avg interview.Averages) interview.Metric {
	worst := tieOrder[0]
	for _, m := range tieOrder[1:] {
		if value(avg, m) < value(avg, worst) {
			worst = m
		}
	}
	return worst
}

// Feedback returns one strength line and one improvement line.
func Feedback(avg interview.Averages) (strength, improvement string) {
	return strengthText[Strongest(avg)], improvementText[Weakest(avg)]
}

func value(avg interview.Averages, m interview.Metric) int {
	return interview.MetricSample(avg).Value(m)
}
// #endregion feedback

// #region build
// ReportInput carries everything a report is derived from.
type ReportInput struct {
	SessionID string
	Settings  interview.Settings
	Questions interview.QuestionSet
	Answers   []string
	Samples   []interview.MetricSample
	EndReason string
	StartedAt time.Time
	EndedAt   time.Time
}

// BuildReport derives a report strictly from the recorded samples.
func BuildReport(in ReportInput) interview.Report {
	avg := AveragesOf(in.Samples)
	strength, improvement := Feedback(avg)

	samples := make([]interview.MetricSample, len(in.Samples))
	copy(samples, in.Samples)
	answers := make([]string, len(in.Answers))
	copy(answers, in.Answers)

	return interview.Report{
		ID:           uuid.New().String(),
		SessionID:    in.SessionID,
		Settings:     in.Settings,
		Questions:    in.Questions,
		Answers:      answers,
		Samples:      samples,
		Averages:     avg,
		OverallScore: Overall(avg),
		Strengths:    []string{strength},
		Improvements: []string{improvement},
		EndReason:    in.EndReason,
		StartedAt:    in.StartedAt,
		EndedAt:      in.EndedAt,
	}
}
// #endregion build
