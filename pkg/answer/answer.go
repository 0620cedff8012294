// Package answer turns query results into natural-language answers.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/prompts"
	"github.com/soundprediction/footballkg/pkg/types"
)

// StageName identifies answer synthesis in the request context.
const StageName = "answer_synthesis"

// NoDataAnswer is returned without a model call when the query matched
// nothing.
const NoDataAnswer = "I could not find any data in the knowledge graph to answer that question."

// DefaultMaxRows caps the rows placed in the prompt.
const DefaultMaxRows = 100

// Synthesizer produces answers from query results.
type Synthesizer struct {
	llm         nlp.Client
	prompt      prompts.PromptVersion
	maxRows     int
	ensureASCII bool
	logger      *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithMaxRows caps the rows given to the model; values below one keep the
// default.
func WithMaxRows(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxRows = n
		}
	}
}

// WithEnsureASCII escapes non-ASCII characters in the prompt context.
func WithEnsureASCII(v bool) Option {
	return func(s *Synthesizer) { s.ensureASCII = v }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSynthesizer creates a Synthesizer that calls llm.
func NewSynthesizer(llm nlp.Client, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		llm:     llm,
		prompt:  prompts.NewLibrary().AnswerSynthesis(),
		maxRows: DefaultMaxRows,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize answers question from result. An empty result yields
// NoDataAnswer. Model failures are returned unchanged.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, result *types.Result) (string, error) {
	if result.Empty() {
		s.logger.DebugContext(ctx, "Query matched no rows, skipping synthesis")
		return NoDataAnswer, nil
	}

	tsv, truncated, err := prompts.RecordsToTSV(result, s.maxRows, s.ensureASCII)
	if err != nil {
		return "", fmt.Errorf("failed to render query results: %w", err)
	}

	messages, err := s.prompt.Call(map[string]any{
		prompts.KeyQuestion:  question,
		prompts.KeyContext:   tsv,
		prompts.KeyTruncated: truncated,
		prompts.KeyLogger:    s.logger,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build answer prompt: %w", err)
	}

	resp, err := s.llm.Chat(nlp.WithStage(ctx, StageName), messages)
	if err != nil {
		return "", err
	}
	prompts.LogResponse(s.logger, StageName, resp)

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", nlp.ErrEmptyResponse
	}
	return text, nil
}
