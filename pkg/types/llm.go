package types

// Role identifies the author of a chat message.
type Role string

// Message is a single chat message sent to a language model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports tokens consumed by one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a language model completion.
type Response struct {
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Model        string      `json:"model,omitempty"`
	TokensUsed   *TokenUsage `json:"tokens_used,omitempty"`
}

type contextKey string

// ContextKeyRequestID carries the request ID of a question through the pipeline.
const ContextKeyRequestID contextKey = "request_id"

// ContextKeyStage names the pipeline stage issuing a model call.
const ContextKeyStage contextKey = "stage"
