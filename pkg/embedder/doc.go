// Package embedder provides the sentence embedding clients used to give
// PLAYER nodes their name_embedding vector.
//
// # Supported Providers
//
//   - EmbedEverything: local sentence-transformers models, the default
//     (all-MiniLM-L6-v2, 384 dimensions)
//   - OpenAI: text-embedding-3-small and compatible servers
//
// CachedClient wraps either provider with a badger store keyed by the input
// text, so repeated ingestion of unchanged rows reuses stored vectors.
//
// # Usage
//
//	client, err := embedder.New(cfg.Embedding)
//	vec, err := client.EmbedSingle(ctx, row.Description())
package embedder
