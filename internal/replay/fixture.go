package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Turns           []FixtureTurn           `json:"turns"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
	ExpectedOverall int                     `json:"expected_overall"`
}

// FixtureTurn mirrors replay.Turn with JSON tags.
type FixtureTurn struct {
	QuestionID string                 `json:"question_id"`
	Answer     string                 `json:"answer"`
	KeyPhrases []string               `json:"key_phrases"`
	Recorded   interview.MetricSample `json:"recorded"`
}

// FixtureExpectedResult captures the expected replayed sample per turn.
type FixtureExpectedResult struct {
	QuestionID string                 `json:"question_id"`
	Sample     interview.MetricSample `json:"sample"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToTurns converts the fixture's turns to domain Turns.
func (f *Fixture) ToTurns() []Turn {
	turns := make([]Turn, len(f.Turns))
	for i, ft := range f.Turns {
		turns[i] = Turn{
			QuestionID: ft.QuestionID,
			Answer:     ft.Answer,
			KeyPhrases: ft.KeyPhrases,
			Recorded:   ft.Recorded,
		}
	}
	return turns
}

// ExportFixture builds a fixture from replay results, using the replayed samples as the new baseline.
func ExportFixture(description string, turns []Turn, results []TurnResult) Fixture {
	f := Fixture{Description: description}
	for i, t := range turns {
		f.Turns = append(f.Turns, FixtureTurn{
			QuestionID: t.QuestionID,
			Answer:     t.Answer,
			KeyPhrases: t.KeyPhrases,
			Recorded:   t.Recorded,
		})
		if i < len(results) {
			f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
				QuestionID: results[i].QuestionID,
				Sample:     results[i].Replayed,
			})
		}
	}
	f.ExpectedOverall = Summarize(results).ReplayedOverall
	return f
}

// #endregion fixture-loader
