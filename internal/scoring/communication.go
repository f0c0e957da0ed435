package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// #region weights

const (
	communicationBase = 70
	shortAnswerChars  = 50
	shortAnswerCap    = 40
	longSentenceWords = 40

	weightRepeatedWord  = 5
	weightRunOn         = 3
	weightLongSentence  = 10
	weightFiller        = 2
	weightAgreement     = 5
	weightTransition    = 5
	weightCompleteSent  = 3
	weightTechnicalTerm = 2
)

// #endregion weights

// #region patterns

var (
	wordPattern       = regexp.MustCompile(`[A-Za-z0-9']+`)
	runOnPattern      = regexp.MustCompile(`\b[a-z]+\s+[A-Z][a-z]+`)
	sentenceSplit     = regexp.MustCompile(`[.!?]+`)
	fillerPattern     = regexp.MustCompile(`(?i)\b(um|uh|like|you know|basically|actually|literally)\b`)
	agreementSingular = regexp.MustCompile(`(?i)\b(he|she|it)\s+(are|were|have been)\b`)
	agreementPlural   = regexp.MustCompile(`(?i)\b(they|we|you)\s+(is|was|has been)\b`)
	transitionPattern = regexp.MustCompile(`(?i)\b(first|second|third|finally|in conclusion|therefore|consequently|however|moreover|furthermore)\b`)
	completePattern   = regexp.MustCompile(`[A-Z][^.!?]*[.!?]`)
	technicalPattern  = regexp.MustCompile(`(?i)\b(algorithm|function|component|state|props|hook|api|interface|dependency|framework|library)\b`)
)

// #endregion patterns

// #region communication

// Communication scores grammar and delivery with a lexical heuristic.
// Answers shorter than 50 characters, the empty answer included, are capped at 40.
func Communication(answer string) int {
	text := strings.TrimSpace(answer)
	penalties := repeatedWords(text)*weightRepeatedWord +
		count(runOnPattern, text)*weightRunOn +
		longSentences(text)*weightLongSentence +
		count(fillerPattern, text)*weightFiller +
		(count(agreementSingular, text)+count(agreementPlural, text))*weightAgreement

	bonuses := count(transitionPattern, text)*weightTransition +
		count(completePattern, text)*weightCompleteSent +
		count(technicalPattern, text)*weightTechnicalTerm

	score := communicationBase - penalties + bonuses
	if utf8.RuneCountInString(text) < shortAnswerChars {
		score = min(score, shortAnswerCap)
	}
	return Clamp(score, 0, 100)
}

// #endregion communication

// #region helpers

func count(re *regexp.Regexp, text string) int {
	return len(re.FindAllStringIndex(text, -1))
}

// repeatedWords counts word pairs like "the the" separated only by whitespace.
func repeatedWords(text string) int {
	locs := wordPattern.FindAllStringIndex(text, -1)
	n := 0
	for i := 1; i < len(locs); i++ {
		prev, cur := locs[i-1], locs[i]
		if strings.TrimSpace(text[prev[1]:cur[0]]) != "" {
			continue
		}
		if strings.EqualFold(text[prev[0]:prev[1]], text[cur[0]:cur[1]]) {
			n++
		}
	}
	return n
}

func longSentences(text string) int {
	n := 0
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if len(strings.Fields(sentence)) > longSentenceWords {
			n++
		}
	}
	return n
}

// #endregion helpers
