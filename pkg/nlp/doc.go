// Package nlp provides the language model clients used by the question
// answering pipeline.
//
// Two providers are supported: Gemini (the default, through
// google/generative-ai-go) and OpenAI or any OpenAI-compatible endpoint
// (through go-openai). Both implement Client.
//
// # Client Wrappers
//
//   - RetryClient: retry with exponential backoff and jitter
//   - CircuitBreakerClient: gobreaker-backed fault isolation with alerting
//   - TokenTrackingClient: token usage persisted to Parquet
//   - RouterClient: per-stage provider selection with fallback
//
// # Usage
//
//	base, err := nlp.NewClient(ctx, nlp.ProviderGemini, nlp.NewLLMConfig().WithAPIKey(key))
//	client := nlp.NewRetryClient(base, nlp.DefaultRetryConfig(), logger)
//	resp, err := client.Chat(nlp.WithStage(ctx, "cypher_generation"), messages)
//
// # Error Handling
//
// Provider failures are wrapped in ProviderError, which carries the HTTP
// status when one is known. Rate limits surface as RateLimitError and match
// ErrRateLimit under errors.Is.
package nlp
