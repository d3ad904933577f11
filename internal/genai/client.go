// Package genai calls a hosted generative-text API to produce campaign
// strategies and email drafts from a structured brief.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// ErrGenerationFailure wraps any transport or API error from the content
// service.
var ErrGenerationFailure = errors.New("content generation failed")

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-pro"
	defaultTimeout = 60 * time.Second
)

// transientError marks an API error worth retrying (5xx, throttling).
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Client is a minimal generateContent API client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
}

type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

// WithModel selects the model name used in the request path.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithTimeout bounds each HTTP call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit throttles outgoing calls to n requests per second.
func WithRateLimit(n float64) ClientOption {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(n), 1) }
}

// WithMaxRetries caps the retry count for transient failures.
func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient creates a generateContent client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateText sends a single prompt and returns the first candidate's text.
// Transient failures (5xx, throttling, timeouts) are retried with exponential
// backoff; the context bounds the whole operation.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *generationConfig) (string, error) {
	var text string
	operation := func() error {
		var err error
		text, err = c.generateOnce(ctx, prompt, cfg)
		if err != nil {
			var te *transientError
			if errors.As(err, &te) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return text, nil
}

func (c *Client) generateOnce(ctx context.Context, prompt string, cfg *generationConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: cfg,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &transientError{fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp errorResponse
		apiErr := fmt.Errorf("HTTP %d", resp.StatusCode)
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			apiErr = fmt.Errorf("API error: %s", errResp.Error.Message)
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", &transientError{apiErr}
		}
		return "", apiErr
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
