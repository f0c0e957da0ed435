package perception

import (
	"math"

	"github.com/danielpatrickdp/interview-engine/internal/scoring"
)

const (
	// expressionCommitThreshold is the intensity a new expression must beat to replace a
	// non-neutral displayed one.
	expressionCommitThreshold = 0.3

	smoothingWeight = 0.7

	minConfidence = 10
	maxConfidence = 100
)

// #region tracker
// Tracker applies the no-face, smoothing and flicker policies to a stream of samples.
// Not safe for concurrent use; the session event loop owns it.
type Tracker struct {
	state State
}

// NewTracker returns a tracker in the initial state.
func NewTracker() *Tracker {
	return &Tracker{state: InitialState()}
}

// State returns the current perception state.
func (t *Tracker) State() State {
	return t.state
}

// Apply folds one sample into the state and returns the result.
func (t *Tracker) Apply(s Sample) State {
	switch s.Outcome {
	case OutcomeNoData:
		if t.state.Confidence != 0 && t.state.ConsecutiveFaceHits == 0 {
			t.state.Confidence = 0
		}
	case OutcomeFace:
		if len(s.Faces) == 0 {
			t.applyNoFace()
			break
		}
		t.applyFace(s.Faces[0])
	default:
		// timeouts and failures count as no face
		t.applyNoFace()
	}
	return t.state
}
// #endregion tracker

// #region policies
// applyNoFace is a strict override; no smoothing.
func (t *Tracker) applyNoFace() {
	t.state.Confidence = 0
	t.state.ConsecutiveFaceHits = max(t.state.ConsecutiveFaceHits-1, 0)
	t.state.Expression = scoring.ExpressionUnknown
}

func (t *Tracker) applyFace(face Face) {
	t.state.ConsecutiveFaceHits = min(t.state.ConsecutiveFaceHits+1, MaxFaceHits)

	dominant, intensity := Dominant(face.Expressions)
	prev := t.state.Expression
	if intensity > expressionCommitThreshold || prev == scoring.ExpressionUnknown || prev == scoring.ExpressionNeutral {
		t.state.Expression = dominant
	}

	raw := scoring.ConfidenceFor(dominant, intensity)
	t.state.Confidence = Smooth(raw, t.state.Confidence)
}

// Smooth blends a raw score with the previous confidence and clamps to [10,100].
// A previous value of 0 means there is nothing to blend with.
func Smooth(raw, previous int) int {
	next := raw
	if previous != 0 {
		next = int(math.Round(smoothingWeight*float64(raw) + (1-smoothingWeight)*float64(previous)))
	}
	return scoring.Clamp(next, minConfidence, maxConfidence)
}

// Dominant returns the highest-intensity label from the fixed label set.
// Ties go to the label listed first in scoring.Expressions.
func Dominant(intensities map[scoring.Expression]float64) (scoring.Expression, float64) {
	best := scoring.ExpressionNeutral
	bestScore := math.Inf(-1)
	for _, label := range scoring.Expressions {
		v := intensities[label]
		if v > bestScore {
			best, bestScore = label, v
		}
	}
	if bestScore < 0 {
		bestScore = 0
	}
	return best, bestScore
}
// #endregion policies
