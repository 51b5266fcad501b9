package di

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"ahv-copilot/internal/adapter/chat_http"
	"ahv-copilot/internal/adapter/llm"
	"ahv-copilot/internal/adapter/repository"
	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/config"
	"ahv-copilot/internal/infra/logger"
	"ahv-copilot/internal/usecase"
	"ahv-copilot/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	DocumentStore domain.DocumentStore
	LLMClient     domain.LLMClient
	Embedder      domain.Embedder

	Orchestrator *retrieval.Orchestrator
	ChatStream   usecase.ChatStreamUsecase
	Autocomplete usecase.AutocompleteUsecase
	AgentRouter  *usecase.AgentRouter

	Handler *chat_http.Handler
}

// NewApplicationComponents wires all dependencies from config and the
// database pool.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	embedder := llm.NewEmbedder(&llm.EmbedderConfig{
		APIKey:     cfg.LLMAPIKey,
		BaseURL:    cfg.LLMBaseURL,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDims,
	})
	llmClient := llm.NewClient(&llm.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Logger:  log,
	})

	store := repository.NewDocumentRepository(pool, embedder)

	limiter := rate.NewLimiter(rate.Limit(cfg.RephraseRatePerSecond), cfg.RephraseBurst)
	orchestrator := retrieval.NewOrchestrator(retrieval.Deps{
		Store:   store,
		LLM:     llmClient,
		Limiter: limiter,
		Logger:  log,
	}, cfg.Matching)

	chatStream, err := usecase.NewChatStreamUsecase(
		orchestrator, llmClient, cfg.TopicCheck, cfg.AnswerMaxTokens, log)
	if err != nil {
		return nil, fmt.Errorf("chat stream usecase: %w", err)
	}

	autocomplete, err := usecase.NewAutocompleteUsecase(
		store, cfg.AutocompleteLimit, cfg.AutocompleteTrigramThreshold, log)
	if err != nil {
		return nil, fmt.Errorf("autocomplete usecase: %w", err)
	}

	router := &usecase.AgentRouter{LLM: llmClient, Logger: log}

	handler := chat_http.NewHandler(chatStream, orchestrator, autocomplete, router,
		logger.NewContextLogger(log, "ahv-copilot"))

	return &ApplicationComponents{
		DocumentStore: store,
		LLMClient:     llmClient,
		Embedder:      embedder,
		Orchestrator:  orchestrator,
		ChatStream:    chatStream,
		Autocomplete:  autocomplete,
		AgentRouter:   router,
		Handler:       handler,
	}, nil
}
