package interview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
		want Settings
	}{
		{
			name: "zero values take defaults",
			in:   Settings{},
			want: Settings{Experience: ExperienceMid, Duration: 15, QuestionCount: 4, Skills: []string{}},
		},
		{
			name: "upper bounds",
			in:   Settings{Duration: 500, QuestionCount: 99, Experience: " Senior "},
			want: Settings{Experience: ExperienceSenior, Duration: 120, QuestionCount: 20, Skills: []string{}},
		},
		{
			name: "negative and unknown",
			in:   Settings{Duration: -3, QuestionCount: -1, Experience: "principal"},
			want: Settings{Experience: ExperienceMid, Duration: 15, QuestionCount: 4, Skills: []string{}},
		},
		{
			name: "trims position and skills",
			in:   Settings{Position: "  Go Engineer ", Duration: 30, QuestionCount: 6, Experience: "junior", Skills: []string{" go ", "", "sql"}},
			want: Settings{Position: "Go Engineer", Experience: ExperienceJunior, Duration: 30, QuestionCount: 6, Skills: []string{"go", "sql"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestNormalize_DoesNotMutate(t *testing.T) {
	in := Settings{Skills: []string{" go "}}
	_ = in.Normalize()
	assert.Equal(t, []string{" go "}, in.Skills)
}

func TestDurationSeconds(t *testing.T) {
	assert.Equal(t, 900, Settings{Duration: 15}.DurationSeconds())
}

func TestFlexInt_Unmarshal(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{"duration":"15","questionCount":4}`), &s))
	assert.Equal(t, FlexInt(15), s.Duration)
	assert.Equal(t, FlexInt(4), s.QuestionCount)

	require.NoError(t, json.Unmarshal([]byte(`{"duration":" 30 ","questionCount":""}`), &s))
	assert.Equal(t, FlexInt(30), s.Duration)
	assert.Equal(t, FlexInt(0), s.QuestionCount)

	assert.Error(t, json.Unmarshal([]byte(`{"duration":"fifteen"}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"duration":true}`), &s))
}

func TestMetricSample_Value(t *testing.T) {
	s := MetricSample{Confidence: 1, Relevance: 2, Communication: 3}
	assert.Equal(t, 1, s.Value(MetricConfidence))
	assert.Equal(t, 2, s.Value(MetricRelevance))
	assert.Equal(t, 3, s.Value(MetricCommunication))
	assert.Equal(t, 0, s.Value("other"))
}
