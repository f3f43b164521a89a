package llm

import (
	"context"
	"errors"
)

// Completer sends a single prompt to a model and returns its raw text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrNotConfigured is returned by the placeholder when no provider is set up.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient stands in when LLM_PROVIDER is none or the provider
// failed to initialize.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", ErrNotConfigured
}
