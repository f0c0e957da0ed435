package questions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// #region defaults-tests
func TestDefaults_BankIsValid(t *testing.T) {
	set := Defaults()
	require.NotEmpty(t, set)
	seen := map[string]bool{}
	for _, q := range set {
		assert.NotEmpty(t, q.ID)
		assert.NotEmpty(t, q.Text)
		assert.NotEmpty(t, q.KeyPhrases, q.ID)
		assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
		seen[q.ID] = true
	}
}

func TestFallback_Truncates(t *testing.T) {
	set := Fallback(2)
	require.Len(t, set, 2)
	assert.Equal(t, Defaults()[0].ID, set[0].ID)
}

func TestFallback_PadsWithUniqueIDs(t *testing.T) {
	n := len(Defaults())
	set := Fallback(n + 2)
	require.Len(t, set, n+2)

	seen := map[string]bool{}
	for _, q := range set {
		assert.False(t, seen[q.ID], "duplicate id %s", q.ID)
		seen[q.ID] = true
	}
	assert.Equal(t, Defaults()[0].Text, set[n].Text)
	assert.Equal(t, Defaults()[0].ID+"-r2", set[n].ID)
}

func TestFallback_DefaultCount(t *testing.T) {
	assert.Len(t, Fallback(0), interview.DefaultQuestionCount)
}

func TestFallback_ReturnsCopies(t *testing.T) {
	set := Fallback(1)
	set[0].KeyPhrases[0] = "mutated"
	assert.NotEqual(t, "mutated", Defaults()[0].KeyPhrases[0])
}

func TestParseBank_Errors(t *testing.T) {
	_, err := ParseBank([]byte("questions: []"))
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)

	_, err = ParseBank([]byte("questions: [unterminated"))
	assert.Error(t, err)
}
// #endregion defaults-tests

// #region http-tests
func TestHTTPProvider_Generate(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/questions/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"questions":[{"id":"n1","text":"What is the event loop?","key_phrases":["event loop","callback"]}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(Config{URL: srv.URL + "/", Timeout: time.Second})
	set, err := p.Generate(context.Background(), Request{Skills: []string{"Node.js"}, Experience: "senior", Count: 1})
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, "n1", set[0].ID)
	assert.Equal(t, []string{"event loop", "callback"}, set[0].KeyPhrases)
	assert.Equal(t, []string{"Node.js"}, got.Skills)
	assert.Equal(t, 1, got.Count)
}

func TestHTTPProvider_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(Config{URL: srv.URL, Timeout: time.Second}).Generate(context.Background(), Request{Count: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestHTTPProvider_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"questions":[]}`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(Config{URL: srv.URL, Timeout: time.Second}).Generate(context.Background(), Request{Count: 4})
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
}
// #endregion http-tests

// #region resolve-tests
type failingProvider struct{ err error }

func (f failingProvider) Generate(context.Context, Request) (interview.QuestionSet, error) {
	return nil, f.err
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (interview.QuestionSet, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolve_FallsBackOnError(t *testing.T) {
	set, err := Resolve(context.Background(), failingProvider{err: errors.New("boom")}, Request{Count: 3}, time.Second)
	require.Error(t, err)
	assert.Equal(t, Fallback(3), set)
}

func TestResolve_FallsBackOnTimeout(t *testing.T) {
	set, err := Resolve(context.Background(), slowProvider{}, Request{Count: 4}, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, set, 4)
}

func TestResolve_NilProvider(t *testing.T) {
	set, err := Resolve(context.Background(), nil, Request{Count: 2}, 0)
	assert.Error(t, err)
	assert.Len(t, set, 2)
}

func TestResolve_EmptyStatic(t *testing.T) {
	set, err := Resolve(context.Background(), Static{}, Request{Count: 2}, 0)
	assert.ErrorIs(t, err, ErrEmptyQuestionSet)
	assert.Len(t, set, 2)
}

func TestResolve_TruncatesPadsAndAssignsIDs(t *testing.T) {
	p := Static{Set: interview.QuestionSet{
		{Text: "one", KeyPhrases: []string{"a"}},
		{ID: "custom", Text: "two"},
		{Text: "three"},
	}}

	set, err := Resolve(context.Background(), p, Request{Count: 2}, time.Second)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, "q1", set[0].ID)
	assert.Equal(t, "custom", set[1].ID)

	set, err = Resolve(context.Background(), p, Request{Count: 5}, time.Second)
	require.NoError(t, err)
	require.Len(t, set, 5)
	assert.Equal(t, "three", set[2].Text)
	assert.Equal(t, Defaults()[0].ID, set[3].ID)
}
// #endregion resolve-tests
