// Package openai implements a minimal client for the OpenAI Chat Completions
// API. The wire contract is pinned to the chat generation of the API:
//
//	POST {base}/v1/chat/completions
//	{"model", "messages":[{"role","content"}], "max_tokens",
//	 "temperature", "response_format":{"type":"json_object"}}
//
// with the completion text read from choices[0].message.content. The older
// text-completions generation is deliberately not supported.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrAPIKeyMissing is reported before any network attempt when no credential
// is configured. Callers can use it to distinguish "feature disabled" from
// "feature broken".
var ErrAPIKeyMissing = errors.New("openai: API key is not configured")

// TransportError is a non-2xx response from the API.
type TransportError struct {
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("openai: API returned status %d: %s", e.StatusCode, e.Body)
}

// ShapeError is a 2xx response whose body does not carry completion text at
// the expected path. The raw body travels with the error for diagnostics.
type ShapeError struct {
	RawBody string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("openai: unexpected response shape: %s", e.RawBody)
}

const (
	completionsPath = "/v1/chat/completions"

	// Low temperature: classification output should be stable across runs.
	temperature = 0.3

	defaultTimeout = 30 * time.Second
)

type Client struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      apiKey,
		model:       model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(2), 4),
		logger:      logger.With("component", "openai"),
	}
}

// Configured reports whether a credential is present, letting callers skip
// the feature entirely without a round trip.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one prompt-completion request and returns the trimmed
// completion text, unparsed. No retries at this layer; each caller decides
// whether a failure is fatal or degradable.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrAPIKeyMissing
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:      maxTokens,
		Temperature:    temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &ShapeError{RawBody: string(body)}
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == nil {
		return "", &ShapeError{RawBody: string(body)}
	}

	c.logger.Debug("completion received", "model", c.model, "max_tokens", maxTokens)

	return strings.TrimSpace(*decoded.Choices[0].Message.Content), nil
}
