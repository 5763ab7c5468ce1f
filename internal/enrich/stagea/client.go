// Package stagea is the HTTP client for the Stage-A enrichment collaborator.
//
// The routing core has no knowledge of Stage-A: the ingestion layer calls
// Analyze strictly after a medium or full routing decision has been returned.
package stagea

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	cerrors "newsgate/internal/core/errors"
	"newsgate/internal/platform/observability"
)

const analyzePath = "/api/v1/analyze-comprehensive"

// Client calls the Stage-A analysis API with request pacing.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zerolog.Logger
}

// Result is the subset of the Stage-A response the pipeline records.
type Result struct {
	Success          bool   `json:"success"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	Error            string `json:"error,omitempty"`
}

type analyzeRequest struct {
	URL  string `json:"url"`
	Tier string `json:"tier,omitempty"`
}

// New creates a Stage-A client. An empty baseURL yields a disabled client:
// Enabled reports false and Analyze returns ErrClientDisabled.
func New(baseURL, apiKey string, timeout time.Duration, rps float64, logger *zerolog.Logger) *Client {
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}
}

// Enabled reports whether a Stage-A backend is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// Analyze submits an article URL for the given tier of analysis.
func (c *Client) Analyze(ctx context.Context, articleURL, tier string) (*Result, error) {
	if !c.Enabled() {
		return nil, cerrors.ErrClientDisabled
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("stage-a rate limit wait: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{URL: articleURL, Tier: tier})
	if err != nil {
		return nil, fmt.Errorf("marshal stage-a request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build stage-a request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()

	resp, err := c.http.Do(req)

	observability.StageADuration.Observe(time.Since(start).Seconds())

	if err != nil {
		observability.StageARequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("stage-a request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		observability.StageARequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("stage-a returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		observability.StageARequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode stage-a response: %w", err)
	}

	observability.StageARequests.WithLabelValues("ok").Inc()

	return &result, nil
}
