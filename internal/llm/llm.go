// Package llm holds the text-generation collaborators used by the
// analysis pipelines. Pipelines depend only on TextGenerator; the
// concrete backend is selected once at process start.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// NewFromEnv selects the generation backend from LLM_PROVIDER
// ("gemini" by default, or "anthropic").
func NewFromEnv(ctx context.Context) (TextGenerator, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	switch provider {
	case "", "gemini":
		return NewGeminiCallerFromEnv(ctx)
	case "anthropic":
		return NewAnthropicCallerFromEnv()
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}
