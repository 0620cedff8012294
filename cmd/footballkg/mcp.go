package footballkg

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/soundprediction/footballkg"
	"github.com/soundprediction/footballkg/pkg/schema"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Register the graph tools with Genkit and serve them",
	Long: `Register the knowledge graph as Genkit tools for agent clients:

- answer_question: answer a natural-language question from the graph
- graph_schema: the schema text the query generator works from
- similar_players: players nearest to a text by name embedding

The command blocks until interrupted.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// QuestionRequest is the input of answer_question.
type QuestionRequest struct {
	Question string `json:"question"`
}

// SchemaRequest is the input of graph_schema.
type SchemaRequest struct {
	Refresh bool `json:"refresh,omitempty"`
}

// SimilarRequest is the input of similar_players.
type SimilarRequest struct {
	Text  string `json:"text"`
	Limit int    `json:"limit,omitempty"`
}

// ToolResponse is a generic response wrapper
type ToolResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type graphQA interface {
	Ask(ctx context.Context, question string) *footballkg.Answer
	Schema() *schema.Schema
	RefreshSchema(ctx context.Context) (*schema.Schema, error)
	SimilarPlayers(ctx context.Context, text string, k int) ([]footballkg.SimilarPlayer, error)
}

type mcpTools struct {
	qa     graphQA
	logger *slog.Logger
}

// registerTools registers all graph tools with Genkit.
func (t *mcpTools) registerTools(g *genkit.Genkit) {
	genkit.DefineTool(g, "answer_question",
		"Answer a question about football players, clubs, leagues and countries from the knowledge graph.",
		t.answerQuestion)

	genkit.DefineTool(g, "graph_schema",
		"Describe the node labels, relationship types and properties of the knowledge graph.",
		t.graphSchema)

	genkit.DefineTool(g, "similar_players",
		"Find the players whose names are most similar to the given text.",
		t.similarPlayers)
}

func (t *mcpTools) answerQuestion(ctx *ai.ToolContext, input *QuestionRequest) (*ToolResponse, error) {
	if input == nil || input.Question == "" {
		return &ToolResponse{Success: false, Error: "question is required"}, nil
	}

	a := t.qa.Ask(ctx, input.Question)
	data := map[string]any{
		"answer":     a.String(),
		"query":      a.Query,
		"request_id": a.RequestID,
	}
	if a.Err != nil {
		t.logger.Warn("answer_question failed", "request_id", a.RequestID, "error", a.Err)
		return &ToolResponse{Success: false, Message: a.String(), Data: data, Error: a.Err.Error()}, nil
	}
	return &ToolResponse{Success: true, Message: a.Text, Data: data}, nil
}

func (t *mcpTools) graphSchema(ctx *ai.ToolContext, input *SchemaRequest) (*ToolResponse, error) {
	s := t.qa.Schema()
	if input != nil && input.Refresh {
		var err error
		if s, err = t.qa.RefreshSchema(ctx); err != nil {
			return &ToolResponse{Success: false, Error: err.Error()}, nil
		}
	}
	if s == nil || s.Empty() {
		return &ToolResponse{Success: true, Message: "The graph is empty."}, nil
	}
	return &ToolResponse{
		Success: true,
		Message: "Graph schema",
		Data: map[string]any{
			"schema":             s.String(),
			"labels":             len(s.Nodes),
			"relationship_types": len(s.Relationships),
		},
	}, nil
}

func (t *mcpTools) similarPlayers(ctx *ai.ToolContext, input *SimilarRequest) (*ToolResponse, error) {
	if input == nil || input.Text == "" {
		return &ToolResponse{Success: false, Error: "text is required"}, nil
	}

	players, err := t.qa.SimilarPlayers(ctx, input.Text, input.Limit)
	if errors.Is(err, footballkg.ErrNoEmbedder) {
		return &ToolResponse{Success: false, Error: "similarity search is not configured"}, nil
	}
	if err != nil {
		return &ToolResponse{Success: false, Error: err.Error()}, nil
	}
	return &ToolResponse{
		Success: true,
		Message: "Similar players",
		Data:    players,
	}, nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := a.qaClient(ctx, true)
	if err != nil {
		return err
	}

	a.logger.Info("Starting Genkit tool server")
	g := genkit.Init(ctx)
	tools := &mcpTools{qa: client, logger: a.logger}
	tools.registerTools(g)
	a.logger.Info("Tools registered, waiting for requests")

	<-ctx.Done()
	a.logger.Info("Tool server shutting down")
	return nil
}
