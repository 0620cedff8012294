package answer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/soundprediction/footballkg/pkg/nlp"
	"github.com/soundprediction/footballkg/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	content  string
	err      error
	calls    int
	messages []types.Message
	stage    string
}

func (f *fakeLLM) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	f.calls++
	f.messages = messages
	f.stage = nlp.Stage(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return &types.Response{Content: f.content}, nil
}

func (f *fakeLLM) Close() error { return nil }

func playerResult(n int) *types.Result {
	r := &types.Result{Keys: []string{"p.name", "p.goals"}}
	for i := 0; i < n; i++ {
		r.Records = append(r.Records, types.Record{
			Keys:   r.Keys,
			Values: []any{fmt.Sprintf("Player %d", i), int64(i)},
		})
	}
	return r
}

func TestSynthesizeEmptyResultSkipsModel(t *testing.T) {
	llm := &fakeLLM{content: "Messi scored 50 goals."}
	s := NewSynthesizer(llm)

	for _, result := range []*types.Result{nil, {Keys: []string{"p.name"}}} {
		text, err := s.Synthesize(context.Background(), "Who scored for Atlantis FC?", result)
		require.NoError(t, err)
		assert.Equal(t, NoDataAnswer, text)
	}
	assert.Zero(t, llm.calls)
}

func TestSynthesizeRendersTSV(t *testing.T) {
	llm := &fakeLLM{content: "  Player 0 and Player 1 are listed.  "}
	s := NewSynthesizer(llm)

	text, err := s.Synthesize(context.Background(), "Who plays for FC Sample?", playerResult(2))
	require.NoError(t, err)
	assert.Equal(t, "Player 0 and Player 1 are listed.", text)
	assert.Equal(t, StageName, llm.stage)

	require.Len(t, llm.messages, 2)
	user := llm.messages[1].Content
	assert.Contains(t, user, "p.name\tp.goals\nPlayer 0\t0\nPlayer 1\t1")
	assert.Contains(t, user, "Question: Who plays for FC Sample?")
	assert.NotContains(t, user, "Only the first rows")
}

func TestSynthesizeTruncates(t *testing.T) {
	llm := &fakeLLM{content: "ok"}
	s := NewSynthesizer(llm, WithMaxRows(3))

	_, err := s.Synthesize(context.Background(), "List players", playerResult(10))
	require.NoError(t, err)

	user := llm.messages[1].Content
	assert.Contains(t, user, "Player 2")
	assert.NotContains(t, user, "Player 3")
	assert.Contains(t, user, "Only the first rows")
}

func TestSynthesizeErrors(t *testing.T) {
	boom := errors.New("deadline exceeded")
	_, err := NewSynthesizer(&fakeLLM{err: boom}).Synthesize(context.Background(), "q", playerResult(1))
	assert.ErrorIs(t, err, boom)

	_, err = NewSynthesizer(&fakeLLM{content: " \n"}).Synthesize(context.Background(), "q", playerResult(1))
	assert.ErrorIs(t, err, nlp.ErrEmptyResponse)
}
