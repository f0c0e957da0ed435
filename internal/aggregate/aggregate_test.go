package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

func TestAggregator_EmptyAveragesAreZero(t *testing.T) {
	a := New()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, interview.Averages{}, a.Averages())
	assert.Equal(t, 0, a.Average(interview.MetricRelevance))
}

func TestAggregator_AppendClampsAndAverages(t *testing.T) {
	a := New()
	s := a.Append(120, -5, 50)
	assert.Equal(t, interview.MetricSample{Confidence: 100, Relevance: 0, Communication: 50}, s)

	a.Append(81, 67, 71)
	a.Append(40, 33, 40)

	assert.Equal(t, 3, a.Len())
	// (100+81+40)/3 = 73.67
	assert.Equal(t, 74, a.Average(interview.MetricConfidence))
	// (0+67+33)/3 = 33.33
	assert.Equal(t, 33, a.Average(interview.MetricRelevance))
	// (50+71+40)/3 = 53.67
	assert.Equal(t, 54, a.Average(interview.MetricCommunication))
}

func TestAggregator_SamplesIsACopy(t *testing.T) {
	a := New()
	a.Append(10, 20, 30)
	got := a.Samples()
	got[0].Confidence = 99
	assert.Equal(t, 10, a.Samples()[0].Confidence)
}

func TestAverage_StaysInRange(t *testing.T) {
	histories := [][]interview.MetricSample{
		{{Confidence: 100, Relevance: 100, Communication: 100}},
		{{}, {}, {}},
		{{Confidence: 0, Relevance: 100, Communication: 1}, {Confidence: 100, Relevance: 0, Communication: 99}},
	}
	for _, h := range histories {
		for _, m := range tieOrder {
			v := Average(h, m)
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 100)
		}
	}
}

func TestOverall(t *testing.T) {
	assert.Equal(t, 0, Overall(interview.Averages{}))
	assert.Equal(t, 100, Overall(interview.Averages{Confidence: 100, Relevance: 100, Communication: 100}))
	// 0.3*80 + 0.4*67 + 0.3*70 = 24 + 26.8 + 21 = 71.8
	assert.Equal(t, 72, Overall(interview.Averages{Confidence: 80, Relevance: 67, Communication: 70}))
}

func TestFeedback_HighestAndLowest(t *testing.T) {
	avg := interview.Averages{Confidence: 40, Relevance: 90, Communication: 60}
	assert.Equal(t, interview.MetricRelevance, Strongest(avg))
	assert.Equal(t, interview.MetricConfidence, Weakest(avg))

	strength, improvement := Feedback(avg)
	assert.Equal(t, strengthText[interview.MetricRelevance], strength)
	assert.Equal(t, improvementText[interview.MetricConfidence], improvement)
}

func TestFeedback_TieOrder(t *testing.T) {
	all := interview.Averages{Confidence: 50, Relevance: 50, Communication: 50}
	assert.Equal(t, interview.MetricConfidence, Strongest(all))
	assert.Equal(t, interview.MetricConfidence, Weakest(all))

	commRel := interview.Averages{Confidence: 10, Relevance: 70, Communication: 70}
	assert.Equal(t, interview.MetricCommunication, Strongest(commRel))

	lowCommRel := interview.Averages{Confidence: 90, Relevance: 20, Communication: 20}
	assert.Equal(t, interview.MetricCommunication, Weakest(lowCommRel))
}

func TestBuildReport_FromHistoryOnly(t *testing.T) {
	samples := []interview.MetricSample{
		{Confidence: 80, Relevance: 60, Communication: 70},
		{Confidence: 60, Relevance: 80, Communication: 50},
	}
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r := BuildReport(ReportInput{
		SessionID: "sess-1",
		Questions: interview.QuestionSet{{ID: "q1"}, {ID: "q2"}},
		Answers:   []string{"a", "b"},
		Samples:   samples,
		EndReason: "completed",
		StartedAt: start,
		EndedAt:   start.Add(10 * time.Minute),
	})

	require.NotEmpty(t, r.ID)
	assert.Equal(t, "sess-1", r.SessionID)
	assert.Equal(t, interview.Averages{Confidence: 70, Relevance: 70, Communication: 60}, r.Averages)
	// 21 + 28 + 18
	assert.Equal(t, 67, r.OverallScore)
	assert.Len(t, r.Strengths, 1)
	assert.Len(t, r.Improvements, 1)
	assert.Equal(t, improvementText[interview.MetricCommunication], r.Improvements[0])

	samples[0].Confidence = 0
	assert.Equal(t, 80, r.Samples[0].Confidence)
}
