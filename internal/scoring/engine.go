package scoring

// #region scores

// Scores holds the textual scores for the live answer.
type Scores struct {
	Relevance     int `json:"relevance"`
	Communication int `json:"communication"`
}

// #endregion scores

// #region engine

// Engine re-derives textual scores whenever the answer text or question index changes.
// It keeps nothing but the last result and the input it was computed for.
// Not safe for concurrent use; the session event loop owns it.
type Engine struct {
	index  int
	answer string
	scores Scores
	primed bool
}

// NewEngine returns an engine with zero scores.
func NewEngine() *Engine {
	return &Engine{index: -1}
}

// Update recomputes scores for answer against keyPhrases when (index, answer) differs from the
// previous call. It reports whether a recomputation happened.
func (e *Engine) Update(index int, answer string, keyPhrases []string) (Scores, bool) {
	if e.primed && index == e.index && answer == e.answer {
		return e.scores, false
	}
	e.index = index
	e.answer = answer
	e.primed = true
	e.scores = Scores{
		Relevance:     Relevance(answer, keyPhrases),
		Communication: Communication(answer),
	}
	return e.scores, true
}

// Scores returns the last computed scores.
func (e *Engine) Scores() Scores {
	return e.scores
}

// #endregion engine
