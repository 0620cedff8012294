package nlp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/soundprediction/footballkg/pkg/types"
	"google.golang.org/api/option"
)

// GeminiClient implements the Client interface for Google's Gemini models.
type GeminiClient struct {
	client *genai.Client
	config LLMConfig
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, config *LLMConfig) (*GeminiClient, error) {
	if config == nil {
		config = NewLLMConfig()
	}
	cfg := *config
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: cfg}, nil
}

// Chat sends a chat completion request to Gemini. System messages become
// the system instruction; earlier turns become chat history.
func (g *GeminiClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	model := g.model()

	var (
		system  []string
		history []*genai.Content
	)
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, msg.Content)
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("gemini chat requires at least one user message")
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	last := history[len(history)-1]
	session := model.StartChat()
	session.History = history[:len(history)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, wrapGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	response := &types.Response{
		Content:      text.String(),
		FinishReason: candidate.FinishReason.String(),
		Model:        g.config.Model,
	}
	if resp.UsageMetadata != nil {
		response.TokensUsed = &types.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return response, nil
}

// model builds a per-call model so concurrent calls never share the
// mutable system instruction.
func (g *GeminiClient) model() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.config.Model)
	model.SetTemperature(g.config.Temperature)
	if g.config.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(g.config.MaxTokens))
	}
	if g.config.TopP > 0 {
		model.SetTopP(g.config.TopP)
	}
	return model
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

type httpCoder interface {
	HTTPCode() int
}

func wrapGeminiError(err error) error {
	var coded httpCoder
	if errors.As(err, &coded) {
		code := coded.HTTPCode()
		if code == http.StatusTooManyRequests {
			return NewRateLimitError(err.Error())
		}
		return &ProviderError{Provider: ProviderGemini, StatusCode: code, Err: err}
	}
	if strings.Contains(strings.ToLower(err.Error()), "resource exhausted") {
		return NewRateLimitError(err.Error())
	}
	return &ProviderError{Provider: ProviderGemini, Err: err}
}
