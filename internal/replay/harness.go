package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/interview-engine/internal/aggregate"
	"github.com/danielpatrickdp/interview-engine/internal/interview"
	"github.com/danielpatrickdp/interview-engine/internal/scoring"
	"github.com/danielpatrickdp/interview-engine/internal/store"
)

// #region types
// Turn is one recorded question transition for replay.
type Turn struct {
	QuestionID string
	Answer     string
	KeyPhrases []string
	Recorded   interview.MetricSample
}

// TurnResult compares the recorded sample with the one the current scorers produce.
// Confidence is carried over from the recording; it came from the camera and cannot be re-derived.
type TurnResult struct {
	QuestionID string
	Recorded   interview.MetricSample
	Replayed   interview.MetricSample
	Drift      bool
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalTurns       int
	Drifted          int
	RecordedAverages interview.Averages
	ReplayedAverages interview.Averages
	RecordedOverall  int
	ReplayedOverall  int
	Strength         string
	Improvement      string
}
// #endregion types

// #region replay
// Replay re-scores every turn's frozen answer with the textual scorers. Operates entirely in-memory.
func Replay(turns []Turn) []TurnResult {
	engine := scoring.NewEngine()
	results := make([]TurnResult, 0, len(turns))
	for i, t := range turns {
		scores, _ := engine.Update(i, t.Answer, t.KeyPhrases)
		replayed := interview.MetricSample{
			Confidence:    scoring.Clamp(t.Recorded.Confidence, 0, 100),
			Relevance:     scores.Relevance,
			Communication: scores.Communication,
		}
		results = append(results, TurnResult{
			QuestionID: t.QuestionID,
			Recorded:   t.Recorded,
			Replayed:   replayed,
			Drift:      replayed != t.Recorded,
		})
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []TurnResult) ReplaySummary {
	recorded := make([]interview.MetricSample, len(results))
	replayed := make([]interview.MetricSample, len(results))
	s := ReplaySummary{TotalTurns: len(results)}
	for i, r := range results {
		recorded[i] = r.Recorded
		replayed[i] = r.Replayed
		if r.Drift {
			s.Drifted++
		}
	}
	s.RecordedAverages = aggregate.AveragesOf(recorded)
	s.ReplayedAverages = aggregate.AveragesOf(replayed)
	s.RecordedOverall = aggregate.Overall(s.RecordedAverages)
	s.ReplayedOverall = aggregate.Overall(s.ReplayedAverages)
	if len(results) > 0 {
		s.Strength, s.Improvement = aggregate.Feedback(s.ReplayedAverages)
	}
	return s
}
// #endregion replay

// #region sources
// FromReport pairs each recorded sample with its question and frozen answer. A session that
// ended early has fewer samples than questions; the unanswered tail is skipped.
func FromReport(r interview.Report, samples []interview.MetricSample) ([]Turn, error) {
	if len(samples) > len(r.Questions) || len(samples) > len(r.Answers) {
		return nil, fmt.Errorf("report %s: %d samples for %d questions and %d answers",
			r.ID, len(samples), len(r.Questions), len(r.Answers))
	}
	turns := make([]Turn, len(samples))
	for i, m := range samples {
		q := r.Questions[i]
		turns[i] = Turn{
			QuestionID: q.ID,
			Answer:     r.Answers[i],
			KeyPhrases: q.KeyPhrases,
			Recorded:   m,
		}
	}
	return turns, nil
}

// FromStore loads a stored report and its sample rows as replay turns.
func FromStore(ctx context.Context, st *store.Store, reportID string) (interview.Report, []Turn, error) {
	r, err := st.GetReport(ctx, reportID)
	if err != nil {
		return interview.Report{}, nil, err
	}
	samples, err := st.Samples(ctx, reportID)
	if err != nil {
		return interview.Report{}, nil, err
	}
	turns, err := FromReport(r, samples)
	return r, turns, err
}

// CheckReport compares the stored report's derived fields with those rebuilt from its recorded
// samples and returns one line per mismatch.
func CheckReport(r interview.Report, s ReplaySummary) []string {
	var out []string
	if r.Averages != s.RecordedAverages {
		out = append(out, fmt.Sprintf("averages: stored %+v, rebuilt %+v", r.Averages, s.RecordedAverages))
	}
	if r.OverallScore != s.RecordedOverall {
		out = append(out, fmt.Sprintf("overall: stored %d, rebuilt %d", r.OverallScore, s.RecordedOverall))
	}
	if s.TotalTurns > 0 {
		strength, improvement := aggregate.Feedback(s.RecordedAverages)
		if len(r.Strengths) == 0 || r.Strengths[0] != strength {
			out = append(out, fmt.Sprintf("strength: stored %v, rebuilt %q", r.Strengths, strength))
		}
		if len(r.Improvements) == 0 || r.Improvements[0] != improvement {
			out = append(out, fmt.Sprintf("improvement: stored %v, rebuilt %q", r.Improvements, improvement))
		}
	}
	return out
}
// #endregion sources
