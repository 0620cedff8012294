package nlp

import (
	"context"
	"errors"
	"testing"
)

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), "anthropic", &LLMConfig{APIKey: "k"})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestNewClient_OpenAI(t *testing.T) {
	c, err := NewClient(context.Background(), "OpenAI", &LLMConfig{APIKey: "k", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("expected *OpenAIClient, got %T", c)
	}
}
