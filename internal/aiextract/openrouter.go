package aiextract

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

	"github.com/avast/retry-go/v4"

	"github.com/planora/planora/internal/plan"
)

const (
	openRouterDefaultBaseURL = "https://openrouter.ai/api/v1"
	openRouterDefaultModel   = "openai/gpt-4o-mini"
)

// OpenRouterClient extracts plans through the OpenRouter chat
// completions API. OpenRouter speaks the OpenAI wire format but routes
// to many upstream models, so the client talks plain HTTP.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	model        string
	temperature  float64
	promptBudget int
	maxRetries   int
	limits       plan.Limits
	client       *http.Client
	logger       *slog.Logger
}

func newOpenRouter(cfg Config, logger *slog.Logger) *OpenRouterClient {
	if cfg.Model == "" {
		cfg.Model = openRouterDefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openRouterDefaultBaseURL
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		promptBudget: cfg.PromptBudget,
		maxRetries:   cfg.MaxRetries,
		limits:       cfg.Limits,
		client:       &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

// Name returns the provider identifier.
func (c *OpenRouterClient) Name() string {
	return "openrouter"
}

// Configured reports whether the client can be called.
func (c *OpenRouterClient) Configured() bool {
	return true
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model          string              `json:"model"`
	Messages       []openRouterMessage `json:"messages"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat map[string]string   `json:"response_format,omitempty"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Extract runs a structured completion over the document text.
func (c *OpenRouterClient) Extract(ctx context.Context, text string) (*plan.Plan, error) {
	reqBody := &openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "system", Content: buildSystemPrompt()},
			{Role: "user", Content: buildUserPrompt(text, c.promptBudget)},
		},
		Temperature:    c.temperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	content, err := retry.DoWithData(
		func() (string, error) {
			return c.complete(ctx, reqBody)
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(10*time.Second),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var rerr *openRouterError
			if errors.As(err, &rerr) {
				return rerr.retryable
			}
			// Network-level errors are worth retrying.
			return true
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("openrouter completion failed: %w", err)
	}

	c.logger.Debug("openrouter extraction response", "model", c.model, "content_len", len(content))
	return finishPlan(content, c.limits)
}

// complete performs one request and returns the message content.
func (c *OpenRouterClient) complete(ctx context.Context, body *openRouterRequest) (string, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", "https://github.com/planora/planora")
	req.Header.Set("X-Title", "Planora")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &openRouterError{
			message:   fmt.Sprintf("OpenRouter error (status %d): %s", resp.StatusCode, string(respBody)),
			retryable: retryableStatus(resp.StatusCode),
		}
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if orResp.Error != nil {
		code := fmt.Sprintf("%v", orResp.Error.Code)
		retryable := false
		switch code {
		case "overloaded", "rate_limit_exceeded", "500", "502", "503":
			retryable = true
		}
		return "", &openRouterError{
			message:   fmt.Sprintf("OpenRouter API error: %s", orResp.Error.Message),
			retryable: retryable,
		}
	}

	if len(orResp.Choices) == 0 {
		// Empty choices on 200 is usually transient.
		return "", &openRouterError{
			message:   fmt.Sprintf("empty choices in response (model=%s, id=%s)", orResp.Model, orResp.ID),
			retryable: true,
		}
	}

	return strings.TrimSpace(orResp.Choices[0].Message.Content), nil
}

// retryableStatus returns true for status codes worth retrying.
func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests:
		return true
	case 520, 521, 522, 523, 524: // Cloudflare errors
		return true
	default:
		return statusCode >= 500
	}
}

type openRouterError struct {
	message   string
	retryable bool
}

func (e *openRouterError) Error() string {
	return e.message
}

var _ Provider = (*OpenRouterClient)(nil)
