package footballkg

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/footballkg"
	"github.com/soundprediction/footballkg/pkg/schema"
)

type fakeQA struct {
	answer     *footballkg.Answer
	schema     *schema.Schema
	refreshErr error
	refreshed  int
	players    []footballkg.SimilarPlayer
	similarErr error
	lastK      int
}

func (f *fakeQA) Ask(ctx context.Context, question string) *footballkg.Answer {
	a := *f.answer
	a.Question = question
	return &a
}

func (f *fakeQA) Schema() *schema.Schema { return f.schema }

func (f *fakeQA) RefreshSchema(ctx context.Context) (*schema.Schema, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.schema, nil
}

func (f *fakeQA) SimilarPlayers(ctx context.Context, text string, k int) ([]footballkg.SimilarPlayer, error) {
	f.lastK = k
	return f.players, f.similarErr
}

func toolCtx() *ai.ToolContext {
	return &ai.ToolContext{Context: context.Background()}
}

func newTools(qa graphQA) *mcpTools {
	return &mcpTools{qa: qa, logger: slog.Default()}
}

func sampleSchema() *schema.Schema {
	return schema.New(
		[]schema.NodeType{
			{Label: "PLAYER", Properties: []schema.Property{{Name: "name", Types: []string{"String"}}}},
			{Label: "CLUB", Properties: []schema.Property{{Name: "name", Types: []string{"String"}}}},
		},
		[]schema.RelationshipType{{Type: "PLAYS_FOR"}},
		[]schema.Pattern{{From: "PLAYER", Type: "PLAYS_FOR", To: "CLUB"}},
	)
}

func TestAnswerQuestionTool(t *testing.T) {
	qa := &fakeQA{answer: &footballkg.Answer{
		RequestID: "req-1",
		Query:     "MATCH (p:PLAYER) RETURN p.name",
		Text:      "Player A and Player B play for FC Sample.",
		State:     footballkg.StateAnswered,
	}}

	resp, err := newTools(qa).answerQuestion(toolCtx(), &QuestionRequest{Question: "Who plays for FC Sample?"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Player A and Player B play for FC Sample.", resp.Message)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "req-1", data["request_id"])
	assert.Equal(t, "MATCH (p:PLAYER) RETURN p.name", data["query"])
}

func TestAnswerQuestionToolFailure(t *testing.T) {
	qa := &fakeQA{answer: &footballkg.Answer{
		RequestID: "req-2",
		State:     footballkg.StateErrored,
		Err:       errors.New("model unavailable"),
	}}

	resp, err := newTools(qa).answerQuestion(toolCtx(), &QuestionRequest{Question: "Who scored most?"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Error: model unavailable", resp.Message)
	assert.Equal(t, "model unavailable", resp.Error)
}

func TestAnswerQuestionToolRequiresQuestion(t *testing.T) {
	tools := newTools(&fakeQA{})

	resp, err := tools.answerQuestion(toolCtx(), &QuestionRequest{})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "question is required", resp.Error)
}

func TestGraphSchemaTool(t *testing.T) {
	qa := &fakeQA{schema: sampleSchema()}
	tools := newTools(qa)

	resp, err := tools.graphSchema(toolCtx(), &SchemaRequest{})
	require.NoError(t, err)
	require.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, 2, data["labels"])
	assert.Equal(t, 1, data["relationship_types"])
	assert.Contains(t, data["schema"], "PLAYS_FOR")
	assert.Zero(t, qa.refreshed)

	resp, err = tools.graphSchema(toolCtx(), &SchemaRequest{Refresh: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, qa.refreshed)
}

func TestGraphSchemaToolEmptyAndFailure(t *testing.T) {
	resp, err := newTools(&fakeQA{schema: schema.New(nil, nil, nil)}).graphSchema(toolCtx(), nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "The graph is empty.", resp.Message)

	qa := &fakeQA{refreshErr: errors.New("connection refused")}
	resp, err = newTools(qa).graphSchema(toolCtx(), &SchemaRequest{Refresh: true})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "connection refused", resp.Error)
}

func TestSimilarPlayersTool(t *testing.T) {
	qa := &fakeQA{players: []footballkg.SimilarPlayer{{Name: "Player A", Score: 0.93}}}

	resp, err := newTools(qa).similarPlayers(toolCtx(), &SimilarRequest{Text: "Player", Limit: 3})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, qa.lastK)
	assert.Equal(t, qa.players, resp.Data)
}

func TestSimilarPlayersToolErrors(t *testing.T) {
	resp, err := newTools(&fakeQA{}).similarPlayers(toolCtx(), &SimilarRequest{})
	require.NoError(t, err)
	assert.Equal(t, "text is required", resp.Error)

	resp, err = newTools(&fakeQA{similarErr: footballkg.ErrNoEmbedder}).similarPlayers(toolCtx(), &SimilarRequest{Text: "x"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "similarity search is not configured", resp.Error)

	resp, err = newTools(&fakeQA{similarErr: errors.New("index missing")}).similarPlayers(toolCtx(), &SimilarRequest{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "index missing", resp.Error)
}
