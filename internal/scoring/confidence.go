package scoring

import "math"

// #region expression

// Expression is a facial expression label reported by the face detector.
type Expression string

const (
	ExpressionNeutral   Expression = "neutral"
	ExpressionHappy     Expression = "happy"
	ExpressionSad       Expression = "sad"
	ExpressionAngry     Expression = "angry"
	ExpressionFearful   Expression = "fearful"
	ExpressionDisgusted Expression = "disgusted"
	ExpressionSurprised Expression = "surprised"
	ExpressionUnknown   Expression = "unknown"
)

// Expressions is the fixed label set in tie-break order.
var Expressions = []Expression{
	ExpressionNeutral,
	ExpressionHappy,
	ExpressionSad,
	ExpressionAngry,
	ExpressionFearful,
	ExpressionDisgusted,
	ExpressionSurprised,
}

// #endregion expression

// #region confidence-table

type confidenceBand struct {
	base  float64
	scale float64
}

var confidenceTable = map[Expression]confidenceBand{
	ExpressionHappy:     {base: 50, scale: 50},
	ExpressionNeutral:   {base: 40, scale: 20},
	ExpressionSurprised: {base: 30, scale: 20},
	ExpressionSad:       {base: 15, scale: 25},
	ExpressionFearful:   {base: 10, scale: 25},
	ExpressionAngry:     {base: 10, scale: 20},
	ExpressionDisgusted: {base: 10, scale: 20},
}

// #endregion confidence-table

// #region confidence

// ConfidenceFor maps a dominant expression and its intensity in [0,1] to a raw confidence score.
// Unknown expressions score 0.
func ConfidenceFor(expr Expression, intensity float64) int {
	band, ok := confidenceTable[expr]
	if !ok {
		return 0
	}
	s := clampUnit(intensity)
	return int(math.Round(band.base + band.scale*s))
}

// #endregion confidence

// #region helpers

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// #endregion helpers
