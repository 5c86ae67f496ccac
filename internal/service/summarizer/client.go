package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	domsvc "MarketPulse/internal/domain/service"
	xhttp "MarketPulse/pkg/http"
)

// Client talks to the external summarization service over HTTP. Failures
// are classified by status code into typed SummaryError kinds; the caller
// never sees the collaborator's raw error text as control flow.
type Client struct {
	baseURL string
	client  *xhttp.Client
}

// New creates a summarizer client. An empty baseURL yields nil so callers
// can treat "not configured" uniformly.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

type summarizeRequest struct {
	Prompt string `json:"prompt"`
}

type summarizeResponse struct {
	Analysis string `json:"analysis"`
}

// Summarize renders the window into a text digest and asks the service for
// a free-text analysis of it.
func (c *Client) Summarize(ctx context.Context, asset string, window []models.Observation, risk models.RiskAssessment) (string, error) {
	payload := summarizeRequest{Prompt: buildPrompt(asset, window, risk)}

	resp, err := c.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.baseURL + "/summarize",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	})
	if err != nil {
		return "", &domsvc.SummaryError{Kind: domsvc.SummaryUnavailable, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &domsvc.SummaryError{Kind: domsvc.SummaryRateLimited}
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", &domsvc.SummaryError{Kind: domsvc.SummaryUnavailable, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", &domsvc.SummaryError{Kind: domsvc.SummaryFailed, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var sr summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", &domsvc.SummaryError{Kind: domsvc.SummaryFailed, Err: fmt.Errorf("decode: %w", err)}
	}
	if sr.Analysis == "" {
		return "", &domsvc.SummaryError{Kind: domsvc.SummaryFailed, Err: fmt.Errorf("empty analysis")}
	}
	return sr.Analysis, nil
}

// buildPrompt renders the observation window into the text digest the
// collaborator consumes.
func buildPrompt(asset string, window []models.Observation, risk models.RiskAssessment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a financial market analyst.\n\nAsset: %s\n\nRecent price history:\n", asset)
	for _, o := range window {
		fmt.Fprintf(&b, "Price: $%.2f at %s\n", o.Value, o.At.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "\nRisk tier: %s\n", risk.Tier)
	if risk.InsufficientData {
		b.WriteString("Note: fewer than two observations available.\n")
	}
	b.WriteString("\nTask:\n- Explain the current market situation\n- Mention risk clearly\n- Keep the explanation simple and grounded\n- Do not make unrealistic predictions\n")
	return b.String()
}

var _ domsvc.Summarizer = (*Client)(nil)
