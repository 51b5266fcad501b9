package domain

import "context"

// ChatMessage is one role/content pair of an LLM conversation.
type ChatMessage struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// StreamChunk is one incremental piece of a streamed completion.
type StreamChunk struct {
	Content string
	Done    bool
}

// LLMClient abstracts the completion API. One OpenAI-compatible
// implementation covers rewriting, fusion, compression, topic checks, intent
// detection and final answer generation.
type LLMClient interface {
	// Complete returns the full completion text.
	Complete(ctx context.Context, messages []ChatMessage, maxTokens int) (string, error)

	// CompleteStream returns a channel of incremental chunks and an error
	// channel. The chunk channel is closed when the stream ends; at most one
	// error is sent. Cancelling ctx releases the underlying stream.
	CompleteStream(ctx context.Context, messages []ChatMessage, maxTokens int) (<-chan StreamChunk, <-chan error, error)
}

// Embedder turns text into vectors for semantic search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
