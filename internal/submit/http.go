package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/danielpatrickdp/interview-engine/internal/interview"
)

// #region http-submitter
// HTTPSubmitter posts reports to {baseURL}/interviews and reads back {"id": "..."}.
type HTTPSubmitter struct {
	baseURL string
	c       *http.Client
}

type submitResponse struct {
	ID string `json:"id"`
}

// NewHTTP builds an HTTP submitter. The per-attempt bound comes from the caller's context.
func NewHTTP(baseURL string) *HTTPSubmitter {
	return &HTTPSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		c:       &http.Client{},
	}
}

// Name implements Submitter.
func (h *HTTPSubmitter) Name() string { return "http" }

// Submit implements Submitter.
func (h *HTTPSubmitter) Submit(ctx context.Context, r interview.Report) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/interviews", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return "", fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("post report: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.ID, nil
}
// #endregion http-submitter
