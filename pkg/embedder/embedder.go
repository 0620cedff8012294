package embedder

import (
	"context"
	"fmt"
	"strings"

	"github.com/soundprediction/footballkg/pkg/config"
)

// Client defines the interface for embedding operations.
type Client interface {
	// Embed generates embeddings for the given texts, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle generates an embedding for a single text.
	EmbedSingle(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the length of the vectors this client produces.
	Dimensions() int

	// Close cleans up any resources.
	Close() error
}

// Config holds configuration shared by the embedding clients.
type Config struct {
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// Provider names accepted in configuration.
const (
	ProviderEmbedEverything = "embedeverything"
	ProviderOpenAI          = "openai"
)

// DefaultModel is the sentence-transformers model of the reference
// deployment; it produces 384-dimensional vectors.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions = 384
)

// New builds the configured embedding client, wrapped in a persistent cache
// when cfg.CacheDir is set.
func New(cfg config.EmbeddingConfig) (Client, error) {
	base := &Config{Model: cfg.Model, BaseURL: cfg.BaseURL, Dimensions: cfg.Dimensions}

	var client Client
	switch strings.ToLower(cfg.Provider) {
	case ProviderEmbedEverything, "":
		if base.Model == "" {
			base.Model = DefaultModel
		}
		if base.Dimensions == 0 {
			base.Dimensions = DefaultDimensions
		}
		c, err := NewEmbedEverythingClient(&EmbedEverythingConfig{Config: base})
		if err != nil {
			return nil, err
		}
		client = c
	case ProviderOpenAI:
		o := NewOpenAIEmbedder(cfg.APIKey, *base)
		base.Model = o.config.Model
		client = o
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.CacheDir == "" {
		return client, nil
	}
	model := strings.ToLower(cfg.Provider)
	if model == "" {
		model = ProviderEmbedEverything
	}
	cached, err := NewCachedClient(client, cfg.CacheDir, model+"/"+base.Model)
	if err != nil {
		client.Close()
		return nil, err
	}
	return cached, nil
}

func checkDimensions(embeddings [][]float32, want int) error {
	if want <= 0 {
		return nil
	}
	for i, e := range embeddings {
		if len(e) != want {
			return fmt.Errorf("embedding %d has %d dimensions, expected %d", i, len(e), want)
		}
	}
	return nil
}
