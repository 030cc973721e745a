// Package llm is the chat-completions collaborator used for summarization,
// syllabus structuring, and battlecard classification.
//
// The HTTP client speaks the OpenAI /v1/chat/completions format, which also
// covers vLLM, Ollama, and other compatible servers. Prompting lives with
// the callers; this package only moves messages and enforces bounds.
package llm

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
)

// ErrEmptyResponse is returned when the server answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty completion response")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one completion call.
type Request struct {
	Messages []Message
	// JSONObject requests a structured JSON response from the server.
	JSONObject bool
}

// Client produces completions. The HTTP implementation is the production
// client; tests substitute fakes.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures the HTTP client.
type Config struct {
	Endpoint string // base URL, e.g. "https://api.openai.com"
	Model    string
	APIKey   string
	Timeout  time.Duration // per attempt. Default: 60s.
	Retries  int           // additional attempts after a failure. Default: 0.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
}

// HTTPClient implements Client over the OpenAI chat-completions API.
type HTTPClient struct {
	endpoint string
	config   Config
	client   *http.Client
}

// New creates an HTTPClient.
func New(cfg Config) *HTTPClient {
	cfg.defaults()
	return &HTTPClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		config:   cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete performs the call, retrying per config. A timeout counts as a
// failed attempt; the final error carries the last attempt's cause.
func (c *HTTPClient) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		out, err := c.callAPI(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *HTTPClient) callAPI(ctx context.Context, req Request) (string, error) {
	body := chatRequest{Model: c.config.Model, Messages: req.Messages}
	if req.JSONObject {
		body.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	url := c.endpoint + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm: POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("llm: HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// ExtractJSON returns the content if it parses as JSON, otherwise the first
// balanced {...} block within it. Models occasionally wrap JSON in prose or
// code fences even when asked not to.
func ExtractJSON(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("llm: no JSON object in response")
	}
	candidate := trimmed[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", fmt.Errorf("llm: malformed JSON in response")
	}
	return candidate, nil
}
