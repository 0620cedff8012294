package nlp

import (
	"context"

	"github.com/soundprediction/footballkg/pkg/types"
)

// mockClient is a mock LLM client for testing
type mockClient struct {
	callCount        int
	failUntilCall    int
	errorToReturn    error
	responseToReturn *types.Response
}

func (m *mockClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	m.callCount++
	if m.callCount <= m.failUntilCall {
		return nil, m.errorToReturn
	}
	if m.responseToReturn != nil {
		return m.responseToReturn, nil
	}
	return &types.Response{Content: "success"}, nil
}

func (m *mockClient) Close() error {
	return nil
}
