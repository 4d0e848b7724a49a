// ABOUTME: HTTP client for an OpenAI-compatible chat completion service
// ABOUTME: Handles per-capability model selection, timeouts and error mapping

package completion

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

	"github.com/orbita-hq/leadgate/internal/config"
)

// ErrEmptyCompletion is returned when the service answers 200 with no choices
var ErrEmptyCompletion = errors.New("completion service returned no choices")

// Message is one chat message in a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call. Model is optional; when empty
// the client picks the model configured for Capability, falling back
// to the default model.
type Request struct {
	Capability  string
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL      string
	apiKey       string
	defaultModel string
	models       map[string]string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
	client       *http.Client
	logger       *slog.Logger
}

// NewClient creates a completion client from config. logger may be nil.
func NewClient(cfg config.CompletionConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		models:       cfg.Models,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		timeout:      cfg.Timeout,
		client:       &http.Client{},
		logger:       logger.With("component", "completion"),
	}
}

// ModelFor returns the model configured for a capability, or the
// default model when the capability has no dedicated entry.
func (c *Client) ModelFor(capability string) string {
	if m, ok := c.models[capability]; ok && m != "" {
		return m
	}
	return c.defaultModel
}

// Complete sends one chat completion request and returns the text of
// the first choice. The call is bounded by the configured timeout on
// top of any deadline already carried by ctx.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = c.ModelFor(req.Capability)
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("completion service error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("completion service returned status %d", resp.StatusCode)
	}

	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("completion finished",
		"model", model,
		"capability", req.Capability,
		"duration_ms", time.Since(start).Milliseconds())

	return parsed.Choices[0].Message.Content, nil
}
