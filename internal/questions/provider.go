package questions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// ErrEmptyQuestionSet is returned when a provider or bank yields no questions.
var ErrEmptyQuestionSet = errors.New("empty question set")

// #region types
// Provider generates a question set for a session.
type Provider interface {
	Generate(ctx context.Context, req Request) (interview.QuestionSet, error)
}

// Request describes the questions a session needs.
type Request struct {
	Position   string   `json:"position"`
	Skills     []string `json:"skills"`
	Experience string   `json:"experience"`
	Count      int      `json:"count"`
}

// Config holds question provider parameters.
type Config struct {
	URL     string
	Timeout time.Duration
}

// DefaultConfig returns the default provider configuration. An empty URL means "use the
// built-in bank".
func DefaultConfig() Config {
	return Config{Timeout: 10 * time.Second}
}
// #endregion types

// #region http-provider
// HTTPProvider calls a question generation service over JSON.
type HTTPProvider struct {
	baseURL string
	c       *http.Client
}

type generateResponse struct {
	Questions []interview.Question `json:"questions"`
}

// NewHTTPProvider builds a client for POST {baseURL}/questions/generate.
func NewHTTPProvider(cfg Config) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		c:       &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate implements Provider.
func (h *HTTPProvider) Generate(ctx context.Context, r Request) (interview.QuestionSet, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/questions/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generate questions: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if len(out.Questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	return interview.QuestionSet(out.Questions), nil
}
// #endregion http-provider

// #region static-provider
// Static serves a fixed question set. Used for the built-in bank and in tests.
type Static struct {
	Set interview.QuestionSet
}

// Generate implements Provider.
func (s Static) Generate(context.Context, Request) (interview.QuestionSet, error) {
	if len(s.Set) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	return cloneSet(s.Set), nil
}
// #endregion static-provider

// #region resolve
// Resolve asks p for questions under timeout and always returns a usable set of exactly
// req.Count questions. When the provider fails or returns nothing, the built-in fallback is
// returned together with the provider's error. Provider results are truncated to the count,
// padded from the built-in bank when short, and given IDs where missing.
func Resolve(ctx context.Context, p Provider, req Request, timeout time.Duration) (interview.QuestionSet, error) {
	if req.Count <= 0 {
		req.Count = interview.DefaultQuestionCount
	}
	if p == nil {
		return Fallback(req.Count), errors.New("no question provider configured")
	}

	gctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	set, err := p.Generate(gctx, req)
	if err == nil && len(set) == 0 {
		err = ErrEmptyQuestionSet
	}
	if err != nil {
		return Fallback(req.Count), err
	}
	return normalize(set, req.Count), nil
}

func normalize(set interview.QuestionSet, count int) interview.QuestionSet {
	out := make(interview.QuestionSet, 0, count)
	for i, q := range set {
		if len(out) == count {
			break
		}
		q = cloneQuestion(q)
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		out = append(out, q)
	}
	if missing := count - len(out); missing > 0 {
		out = append(out, Fallback(missing)...)
	}
	return out
}
// #endregion resolve
