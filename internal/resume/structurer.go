package resume

import (
	"context"
	"errors"
	"fmt"

	"github.com/somacore/roledeck/internal/llm"
)

// Structurer turns raw resume text into a StructuredResume.
type Structurer interface {
	Structure(ctx context.Context, rawText string) (StructuredResume, error)
}

// ErrNoCapability is returned when no model is wired.
var ErrNoCapability = errors.New("structuring capability not configured")

// LLMStructurer structures resumes with a JSON-mode language model.
type LLMStructurer struct {
	Completer llm.Completer
}

// Structure prompts the model and validates its answer. Any response that
// is not JSON of the structured resume shape is an error.
func (s LLMStructurer) Structure(ctx context.Context, rawText string) (StructuredResume, error) {
	if s.Completer == nil {
		return StructuredResume{}, ErrNoCapability
	}
	out, err := s.Completer.Complete(ctx, BuildStructurePrompt(rawText))
	if errors.Is(err, llm.ErrNotConfigured) {
		return StructuredResume{}, ErrNoCapability
	}
	if err != nil {
		return StructuredResume{}, fmt.Errorf("structure resume: %w", err)
	}
	parsed, err := Parse([]byte(out))
	if err != nil {
		return StructuredResume{}, fmt.Errorf("structure resume: %w", err)
	}
	return parsed, nil
}
