package usecase

import (
	"context"

	"ahv-copilot/internal/domain"
)

// TokenKind classifies a stream token for the transport layer.
type TokenKind string

const (
	// TokenKindContent carries user-visible answer text, forwarded in the
	// exact order the LLM produced it.
	TokenKindContent TokenKind = "content"
	// TokenKindStatus carries a localized progress message shown while the
	// answer is still pending.
	TokenKindStatus TokenKind = "status"
	// TokenKindControl carries machine-readable markers for the frontend,
	// never rendered as text.
	TokenKindControl TokenKind = "control"
)

// Token is one element of the answer stream. Tokens are request-scoped and
// consumed exactly once, in order.
type Token struct {
	Kind    TokenKind
	Payload string
}

// Control markers embedded in the stream.
const (
	markerOffTopicTrue  = "<off_topic>true</off_topic>"
	markerOffTopicFalse = "<off_topic>false</off_topic>"
	markerDone          = "<done>true</done>"
	markerError         = "<error>true</error>"
)

// ChatState names the phase a streaming exchange is in. States only move
// forward; ERROR is reachable from anywhere.
type ChatState string

const (
	StateIdle             ChatState = "IDLE"
	StateTopicCheck       ChatState = "TOPIC_CHECK"
	StateRetrieving       ChatState = "RETRIEVING"
	StateStreamingContent ChatState = "STREAMING_CONTENT"
	StateDone             ChatState = "DONE"
	StateError            ChatState = "ERROR"
)

// ChatInput is the validated request a stream is produced for.
type ChatInput struct {
	Query    string
	Language domain.Language
	Tags     []string
	Source   string
	// MaxTokens caps the final answer generation. Zero means the client
	// default.
	MaxTokens int
}

// RetrievalQuery maps the chat input onto the retrieval layer's query record.
func (in ChatInput) RetrievalQuery() domain.Query {
	return domain.Query{
		Text:     in.Query,
		Language: in.Language,
		Tags:     in.Tags,
		Source:   in.Source,
	}
}

// ChatStreamUsecase produces the ordered token stream for one exchange. The
// stream is finite and not restartable.
type ChatStreamUsecase interface {
	Stream(ctx context.Context, input ChatInput) <-chan Token
}
