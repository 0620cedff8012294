package embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var openAIDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// OpenAIEmbedder implements Client against the OpenAI embeddings API or a
// compatible server.
type OpenAIEmbedder struct {
	client *openai.Client
	config Config
}

// NewOpenAIEmbedder creates a new OpenAI embedder.
func NewOpenAIEmbedder(apiKey string, config Config) *OpenAIEmbedder {
	if config.Model == "" {
		config.Model = string(openai.SmallEmbedding3)
	}
	if config.Dimensions == 0 {
		config.Dimensions = openAIDimensions[config.Model]
	}
	if config.Dimensions == 0 {
		config.Dimensions = 1536
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Embed generates embeddings for the given texts.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(o.config.Model),
	}
	// Only the v3 models accept a reduced dimension count.
	if strings.HasPrefix(o.config.Model, "text-embedding-3") && o.config.Dimensions != openAIDimensions[o.config.Model] {
		req.Dimensions = o.config.Dimensions
	}

	resp, err := o.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding API returned out of range index %d", d.Index)
		}
		embeddings[d.Index] = d.Embedding
	}
	if err := checkDimensions(embeddings, o.config.Dimensions); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// EmbedSingle generates an embedding for a single text.
func (o *OpenAIEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := o.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Dimensions returns the number of dimensions in the embeddings.
func (o *OpenAIEmbedder) Dimensions() int {
	return o.config.Dimensions
}

// Close implements Client.
func (o *OpenAIEmbedder) Close() error {
	return nil
}
