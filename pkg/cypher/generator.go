package cypher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/prompts"
	"github.com/soundprediction/footballkg/pkg/types"
)

// StageName identifies query generation in the request context.
const StageName = "cypher_generation"

// Generator produces Cypher queries from questions.
type Generator struct {
	llm       nlp.Client
	prompt    prompts.PromptVersion
	exemplars []prompts.Exemplar
	logger    *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithExemplars replaces the default exemplar pack.
func WithExemplars(exemplars []prompts.Exemplar) GeneratorOption {
	return func(g *Generator) {
		if len(exemplars) > 0 {
			g.exemplars = exemplars
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithPrompt replaces the generation prompt.
func WithPrompt(p prompts.PromptVersion) GeneratorOption {
	return func(g *Generator) {
		if p != nil {
			g.prompt = p
		}
	}
}

// NewGenerator creates a Generator that calls llm.
func NewGenerator(llm nlp.Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		llm:       llm,
		prompt:    prompts.NewLibrary().CypherGeneration(),
		exemplars: prompts.DefaultExemplars(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a Cypher query answering question over the graph
// described by schemaText. Model failures are returned unchanged.
func (g *Generator) Generate(ctx context.Context, schemaText, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", types.ErrEmptyQuestion
	}

	messages, err := g.prompt.Call(map[string]any{
		prompts.KeySchema:    schemaText,
		prompts.KeyQuestion:  question,
		prompts.KeyExemplars: g.exemplars,
		prompts.KeyLogger:    g.logger,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build cypher prompt: %w", err)
	}

	resp, err := g.llm.Chat(nlp.WithStage(ctx, StageName), messages)
	if err != nil {
		return "", err
	}
	prompts.LogResponse(g.logger, StageName, resp)

	query, err := ExtractQuery(resp.Content)
	if err != nil {
		return "", fmt.Errorf("model returned no query: %w", err)
	}

	g.logger.DebugContext(ctx, "Generated cypher", "query", query)
	return query, nil
}
