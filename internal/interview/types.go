package interview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// #region question
// Question is a single interview prompt with the content an answer is scored against.
type Question struct {
	ID             string   `json:"id" yaml:"id"`
	Text           string   `json:"text" yaml:"text"`
	ExpectedTopics []string `json:"expected_topics" yaml:"expected_topics"`
	KeyPhrases     []string `json:"key_phrases" yaml:"key_phrases"`
}

// QuestionSet is the ordered list of questions for one session. Fixed once the session starts.
type QuestionSet []Question
// #endregion question

// #region metric-sample
// MetricSample is the (confidence, relevance, communication) triple recorded per question.
type MetricSample struct {
	Confidence    int `json:"confidence"`
	Relevance     int `json:"relevance"`
	Communication int `json:"communication"`
}

// Metric names one of the three scored dimensions.
type Metric string

const (
	MetricConfidence    Metric = "confidence"
	MetricRelevance     Metric = "relevance"
	MetricCommunication Metric = "communication"
)

// Value returns the sample's score for m.
func (s MetricSample) Value(m Metric) int {
	switch m {
	case MetricConfidence:
		return s.Confidence
	case MetricRelevance:
		return s.Relevance
	case MetricCommunication:
		return s.Communication
	}
	return 0
}

// Averages holds the rounded per-metric means over a sample history.
type Averages struct {
	Confidence    int `json:"confidence"`
	Relevance     int `json:"relevance"`
	Communication int `json:"communication"`
}
// #endregion metric-sample

// #region settings
// Experience levels accepted in Settings.
const (
	ExperienceJunior = "junior"
	ExperienceMid    = "mid"
	ExperienceSenior = "senior"
)

// Settings is the free-form session configuration supplied by the candidate.
// Duration is in minutes.
type Settings struct {
	Position      string   `json:"position" yaml:"position"`
	Experience    string   `json:"experience" yaml:"experience"`
	Duration      FlexInt  `json:"duration" yaml:"duration"`
	QuestionCount FlexInt  `json:"questionCount" yaml:"question_count"`
	Skills        []string `json:"skills" yaml:"skills"`
}

// FlexInt decodes from either a JSON number or a numeric string ("15").
type FlexInt int

// UnmarshalJSON accepts 15, "15" and "" (zero).
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("flex int: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("flex int %q: %w", s, err)
	}
	*f = FlexInt(n)
	return nil
}
// #endregion settings

// #region report
// Report is the write-once result of a finished session.
type Report struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id"`
	Settings     Settings       `json:"settings"`
	Questions    QuestionSet    `json:"questions"`
	Answers      []string       `json:"answers"`
	Samples      []MetricSample `json:"per_question_samples"`
	Averages     Averages       `json:"averages"`
	OverallScore int            `json:"overall_score"`
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
	EndReason    string         `json:"end_reason"`
	StartedAt    time.Time      `json:"started_at"`
	EndedAt      time.Time      `json:"ended_at"`
}
// #endregion report
