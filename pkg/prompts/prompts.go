package prompts

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/footballkg/pkg/types"
)

// Context keys understood by the prompt functions.
const (
	KeySchema      = "schema"
	KeyQuestion    = "question"
	KeyExemplars   = "exemplars"
	KeyContext     = "context"
	KeyTruncated   = "truncated"
	KeyLogger      = "logger"
	KeyEnsureASCII = "ensure_ascii"
)

// PromptFunction builds the messages for one prompt from a context map.
type PromptFunction func(context map[string]any) ([]types.Message, error)

// PromptVersion is a callable prompt.
type PromptVersion interface {
	Call(context map[string]any) ([]types.Message, error)
}

type promptVersionImpl struct {
	fn PromptFunction
}

func (p *promptVersionImpl) Call(context map[string]any) ([]types.Message, error) {
	return p.fn(context)
}

// NewPromptVersion wraps fn as a PromptVersion.
func NewPromptVersion(fn PromptFunction) PromptVersion {
	return &promptVersionImpl{fn: fn}
}

// Library holds the prompts of the question-answering pipeline.
type Library struct {
	cypherGenerationPrompt PromptVersion
	answerSynthesisPrompt  PromptVersion
}

// CypherGeneration turns a question into a Cypher query.
func (l *Library) CypherGeneration() PromptVersion { return l.cypherGenerationPrompt }

// AnswerSynthesis turns query results into a natural-language answer.
func (l *Library) AnswerSynthesis() PromptVersion { return l.answerSynthesisPrompt }

// NewLibrary creates a Library with the default prompts.
func NewLibrary() *Library {
	return &Library{
		cypherGenerationPrompt: NewPromptVersion(cypherGenerationPrompt),
		answerSynthesisPrompt:  NewPromptVersion(answerSynthesisPrompt),
	}
}

func requireString(context map[string]any, key string) (string, error) {
	v, ok := context[key]
	if !ok {
		return "", fmt.Errorf("prompt context missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("prompt context %q must be a string, got %T", key, v)
	}
	return s, nil
}

func loggerFrom(context map[string]any) *slog.Logger {
	if l, ok := context[KeyLogger].(*slog.Logger); ok {
		return l
	}
	return nil
}
