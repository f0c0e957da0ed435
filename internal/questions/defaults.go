package questions

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// #region defaults
type bankFile struct {
	Questions []interview.Question `yaml:"questions"`
}

var bank = mustParseBank(defaultsYAML)

func mustParseBank(b []byte) interview.QuestionSet {
	set, err := ParseBank(b)
	if err != nil {
		panic(err)
	}
	return set
}

// ParseBank decodes a YAML question bank. The bank must hold at least one question.
func ParseBank(b []byte) (interview.QuestionSet, error) {
	var f bankFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	return interview.QuestionSet(f.Questions), nil
}

// Defaults returns a copy of the built-in question bank.
func Defaults() interview.QuestionSet {
	return cloneSet(bank)
}

// Fallback returns count questions from the built-in bank. Shorter requests truncate the bank;
// longer ones cycle through it again with suffixed IDs so every ID stays unique.
func Fallback(count int) interview.QuestionSet {
	return fallbackFrom(bank, count)
}

func fallbackFrom(src interview.QuestionSet, count int) interview.QuestionSet {
	if count <= 0 {
		count = interview.DefaultQuestionCount
	}
	out := make(interview.QuestionSet, count)
	for i := range out {
		q := cloneQuestion(src[i%len(src)])
		if round := i / len(src); round > 0 {
			q.ID = fmt.Sprintf("%s-r%d", q.ID, round+1)
		}
		out[i] = q
	}
	return out
}
// #endregion defaults

// #region clone
func cloneSet(s interview.QuestionSet) interview.QuestionSet {
	out := make(interview.QuestionSet, len(s))
	for i, q := range s {
		out[i] = cloneQuestion(q)
	}
	return out
}

func cloneQuestion(q interview.Question) interview.Question {
	q.ExpectedTopics = append([]string(nil), q.ExpectedTopics...)
	q.KeyPhrases = append([]string(nil), q.KeyPhrases...)
	return q
}
// #endregion clone
