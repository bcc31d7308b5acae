package aiextract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/planora/planora/internal/plan"
)

const openAIDefaultModel = "gpt-4o-mini"

// OpenAIClient extracts plans through the OpenAI chat completions API
// using the official SDK with a JSON-object response format.
type OpenAIClient struct {
	model        string
	temperature  float64
	promptBudget int
	limits       plan.Limits
	client       openai.Client
	logger       *slog.Logger
}

func newOpenAI(cfg Config, logger *slog.Logger) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		promptBudget: cfg.PromptBudget,
		limits:       cfg.Limits,
		client:       openai.NewClient(opts...),
		logger:       logger,
	}
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Configured reports whether the client can be called.
func (c *OpenAIClient) Configured() bool {
	return true
}

// Extract runs a structured completion over the document text.
func (c *OpenAIClient) Extract(ctx context.Context, text string) (*plan.Plan, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt()),
			openai.UserMessage(buildUserPrompt(text, c.promptBudget)),
		},
		Temperature: openai.Float(c.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices (model=%s)", c.model)
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	c.logger.Debug("openai extraction response", "model", c.model, "content_len", len(content))
	return finishPlan(content, c.limits)
}

var _ Provider = (*OpenAIClient)(nil)
