package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/logger"
	"ahv-copilot/internal/usecase/retrieval"
)

const (
	topicCheckMaxTokens    = 8
	defaultAnswerMaxTokens = 2048
	answerCacheSize        = 512
	answerCacheTTL         = time.Hour

	fallbackSourceURL = "https://www.eak.admin.ch"
)

var failureMessages = map[domain.Language]string{
	domain.LanguageGerman:  "Entschuldigung, bei der Verarbeitung Ihrer Anfrage ist ein Fehler aufgetreten. Bitte versuchen Sie es erneut.",
	domain.LanguageFrench:  "Désolé, une erreur s'est produite lors du traitement de votre demande. Veuillez réessayer.",
	domain.LanguageItalian: "Spiacenti, si è verificato un errore durante l'elaborazione della sua richiesta. La preghiamo di riprovare.",
}

type cachedAnswer struct {
	answer    string
	sourceURL string
	expiresAt time.Time
}

type chatStreamUsecase struct {
	orchestrator *retrieval.Orchestrator
	llm          domain.LLMClient
	cache        *lru.Cache[string, cachedAnswer]
	topicCheck   bool
	maxTokens    int
	logger       *slog.Logger
}

// NewChatStreamUsecase wires the streaming pipeline. topicCheck disables the
// off-topic classifier when false, for deployments that gate upstream.
func NewChatStreamUsecase(
	orchestrator *retrieval.Orchestrator,
	llm domain.LLMClient,
	topicCheck bool,
	maxTokens int,
	logger *slog.Logger,
) (ChatStreamUsecase, error) {
	cache, err := lru.New[string, cachedAnswer](answerCacheSize)
	if err != nil {
		return nil, fmt.Errorf("answer cache: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnswerMaxTokens
	}
	return &chatStreamUsecase{
		orchestrator: orchestrator,
		llm:          llm,
		cache:        cache,
		topicCheck:   topicCheck,
		maxTokens:    maxTokens,
		logger:       logger,
	}, nil
}

// Stream runs the exchange state machine and emits the ordered token stream.
// Content tokens are forwarded the moment the LLM produces them; status and
// control tokens are inserted between content segments, never inside one.
// Closing the context stops forwarding and releases the LLM stream.
func (u *chatStreamUsecase) Stream(ctx context.Context, input ChatInput) <-chan Token {
	tokens := make(chan Token, 4)
	go func() {
		defer close(tokens)
		state := StateIdle

		if strings.TrimSpace(input.Query) == "" {
			u.fail(ctx, tokens, input.Language, state, fmt.Errorf("query is empty"))
			return
		}
		if !input.Language.Valid() {
			input.Language = domain.DefaultLanguage
		}
		builder := &MessageBuilder{Language: input.Language}

		// TOPIC_CHECK
		state = StateTopicCheck
		if !u.send(ctx, tokens, Token{
			Kind:    TokenKindStatus,
			Payload: StatusMessage(StatusTopicCheck, input.Language),
		}) {
			return
		}
		if u.topicCheck {
			onTopic, err := u.checkTopic(ctx, builder, input.Query)
			if err != nil {
				// The classifier failing must not block an answer; assume
				// on-topic and log.
				logger.Enrich(ctx, u.logger).Warn("topic_check_failed",
					slog.String("query", input.Query),
					slog.String("error", err.Error()))
				onTopic = true
			}
			if !onTopic {
				if !u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: OfftopicMessage(input.Language)}) {
					return
				}
				u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: sourceLink(fallbackSourceURL)})
				u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerOffTopicTrue})
				u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerDone})
				return
			}
			if !u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerOffTopicFalse}) {
				return
			}
		}

		// Serve a cached answer when the same query was answered recently.
		cacheKey := cacheKey(input)
		if cached, ok := u.cache.Get(cacheKey); ok {
			if time.Now().Before(cached.expiresAt) {
				logger.Enrich(ctx, u.logger).Info("streaming_cached_answer", slog.String("key", cacheKey))
				u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: cached.answer})
				if cached.sourceURL != "" {
					u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: sourceLink(cached.sourceURL)})
				}
				u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerDone})
				return
			}
			u.cache.Remove(cacheKey)
		}

		// RETRIEVING
		state = StateRetrieving
		if !u.send(ctx, tokens, Token{
			Kind:    TokenKindStatus,
			Payload: StatusMessage(StatusRetrieval, input.Language),
		}) {
			return
		}
		merged, err := u.orchestrator.Retrieve(ctx, input.RetrievalQuery())
		if err != nil {
			if err == retrieval.ErrNoDocuments {
				// Distinguished outcome: tell the user, end cleanly.
				u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: NoDocumentsMessage(input.Language)})
				u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerDone})
				return
			}
			u.fail(ctx, tokens, input.Language, state, err)
			return
		}

		// STREAMING_CONTENT
		state = StateStreamingContent
		messages := builder.BuildChatPrompt(merged.Documents, input.Query)
		maxTokens := input.MaxTokens
		if maxTokens <= 0 {
			maxTokens = u.maxTokens
		}
		chunkCh, errCh, err := u.llm.CompleteStream(ctx, messages, maxTokens)
		if err != nil {
			u.fail(ctx, tokens, input.Language, state, err)
			return
		}

		var answer strings.Builder
		chunkStream, errStream := chunkCh, errCh
		for chunkStream != nil || errStream != nil {
			select {
			case <-ctx.Done():
				// Client gone: stop forwarding, the cancelled context
				// releases the LLM stream.
				return
			case chunk, ok := <-chunkStream:
				if !ok {
					chunkStream = nil
					continue
				}
				if chunk.Content != "" {
					answer.WriteString(chunk.Content)
					if !u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: chunk.Content}) {
						return
					}
				}
				if chunk.Done {
					chunkStream = nil
				}
			case streamErr, ok := <-errStream:
				if !ok {
					errStream = nil
					continue
				}
				u.fail(ctx, tokens, input.Language, state, streamErr)
				return
			}
		}

		sourceURL := topSourceURL(merged.Documents)
		if sourceURL != "" {
			if !u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: sourceLink(sourceURL)}) {
				return
			}
		}

		u.cache.Add(cacheKey, cachedAnswer{
			answer:    answer.String(),
			sourceURL: sourceURL,
			expiresAt: time.Now().Add(answerCacheTTL),
		})

		// DONE
		u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerDone})
	}()
	return tokens
}

// checkTopic classifies the query as in-domain or not. The classifier
// answers True/False per its prompt contract.
func (u *chatStreamUsecase) checkTopic(ctx context.Context, builder *MessageBuilder, query string) (bool, error) {
	resp, err := u.llm.Complete(ctx, builder.BuildTopicCheckPrompt(query), topicCheckMaxTokens)
	if err != nil {
		return false, fmt.Errorf("topic check: %w", err)
	}
	return strings.Contains(strings.ToLower(resp), "true"), nil
}

// fail transitions to ERROR: a generic localized failure message, the error
// marker, and the end of the stream. The process itself stays up.
func (u *chatStreamUsecase) fail(ctx context.Context, tokens chan<- Token, lang domain.Language, from ChatState, err error) {
	logger.Enrich(ctx, u.logger).Error("chat_stream_failed",
		slog.String("state", string(from)),
		slog.String("error", err.Error()))
	msg, ok := failureMessages[lang]
	if !ok {
		msg = failureMessages[domain.DefaultLanguage]
	}
	u.send(ctx, tokens, Token{Kind: TokenKindContent, Payload: msg})
	u.send(ctx, tokens, Token{Kind: TokenKindControl, Payload: markerError})
}

func (u *chatStreamUsecase) send(ctx context.Context, tokens chan<- Token, t Token) bool {
	select {
	case <-ctx.Done():
		return false
	case tokens <- t:
		return true
	}
}

func cacheKey(input ChatInput) string {
	return fmt.Sprintf("%s|%s|%s|%s",
		input.Language, input.Source, strings.Join(input.Tags, ","), input.Query)
}

// topSourceURL picks the citation link: the URL of the best ranked document
// that has one.
func topSourceURL(docs []domain.RankedDocument) string {
	for _, ranked := range docs {
		if ranked.Doc.URL != "" {
			return ranked.Doc.URL
		}
	}
	return ""
}

// sourceLink formats the trailing citation block appended after the answer.
func sourceLink(url string) string {
	return fmt.Sprintf("\n\n<a href='%s' target='_blank' class='source-link'>%s</a>", url, url)
}
