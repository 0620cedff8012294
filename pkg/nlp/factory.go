package nlp

import (
	"context"
	"fmt"
	"strings"
)

// NewClient builds the base client for the named provider.
func NewClient(ctx context.Context, provider string, config *LLMConfig) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config)
	case ProviderOpenAI:
		return NewOpenAIClient(config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
}
