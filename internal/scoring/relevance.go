package scoring

import (
	"math"
	"strings"
)

// maxRelevancePhrases caps the denominator so long phrase lists don't make full marks unreachable.
const maxRelevancePhrases = 5

// #region relevance

// Relevance scores how many of the question's key phrases appear in the answer.
// Matching is a case-insensitive substring test and each phrase counts at most once.
func Relevance(answer string, keyPhrases []string) int {
	text := strings.ToLower(strings.TrimSpace(answer))
	if text == "" || len(keyPhrases) == 0 {
		return 0
	}

	matched := 0
	for _, phrase := range keyPhrases {
		p := strings.ToLower(strings.TrimSpace(phrase))
		if p == "" {
			continue
		}
		if strings.Contains(text, p) {
			matched++
		}
	}

	denom := min(maxRelevancePhrases, len(keyPhrases))
	score := int(math.Round(100 * float64(matched) / float64(denom)))
	return Clamp(score, 0, 100)
}

// #endregion relevance
