package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/somacore/roledeck/internal/llm"
)

const DefaultModel = "gemini-2.5-flash"

// Client completes prompts through Gemini with a JSON response mime type.
type Client struct {
	model llms.Model
}

// New builds a Gemini client. An empty modelName selects DefaultModel.
func New(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("init gemini: %w", err)
	}
	return &Client{model: model}, nil
}

// NewWithModel wraps an already constructed langchaingo model.
func NewWithModel(model llms.Model) *Client {
	return &Client{model: model}
}

// Complete returns the model's text response for prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, c.model, prompt,
		llms.WithJSONMode(),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("gemini response empty content")
	}
	return out, nil
}

var _ llm.Completer = (*Client)(nil)
