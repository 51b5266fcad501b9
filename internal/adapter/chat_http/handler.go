package chat_http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/logger"
	"ahv-copilot/internal/infra/metrics"
	"ahv-copilot/internal/usecase"
	"ahv-copilot/internal/usecase/retrieval"
)

// Handler serves the public chat API. Every request gets a fresh request ID
// that the context logger stamps onto all downstream log records.
type Handler struct {
	chatStream   usecase.ChatStreamUsecase
	orchestrator *retrieval.Orchestrator
	autocomplete usecase.AutocompleteUsecase
	router       *usecase.AgentRouter
	ctxLog       *logger.ContextLogger
}

func NewHandler(
	chatStream usecase.ChatStreamUsecase,
	orchestrator *retrieval.Orchestrator,
	autocomplete usecase.AutocompleteUsecase,
	router *usecase.AgentRouter,
	ctxLog *logger.ContextLogger,
) *Handler {
	return &Handler{
		chatStream:   chatStream,
		orchestrator: orchestrator,
		autocomplete: autocomplete,
		router:       router,
		ctxLog:       ctxLog,
	}
}

// Register wires the routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	v1 := e.Group("/v1")
	v1.POST("/chat/stream", h.ChatStream)
	v1.POST("/retrieve", h.Retrieve)
	v1.GET("/autocomplete", h.Autocomplete)
	v1.POST("/pension/early-retirement", h.PensionEarlyRetirement)
	v1.POST("/agents/answer", h.AgentAnswer)
}

type chatRequest struct {
	Query     string   `json:"query"`
	Language  string   `json:"language"`
	Tags      []string `json:"tags"`
	Source    string   `json:"source"`
	MaxTokens int      `json:"max_tokens"`
}

type streamToken struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload"`
}

// ChatStream answers a chat request as a Server-Sent Events stream of
// tokens. Each event's data field is one JSON-encoded token.
func (h *Handler) ChatStream(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	ctx := logger.WithRequestID(c.Request().Context(), uuid.NewString())
	log := h.ctxLog.WithContext(ctx)
	log.Info("chat_stream_started",
		slog.String("query", req.Query),
		slog.String("language", req.Language))

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, canFlush := c.Response().Writer.(http.Flusher)
	if !canFlush {
		log.Error("response writer does not support flushing")
		return c.String(http.StatusInternalServerError, "streaming not supported")
	}

	tokens := h.chatStream.Stream(ctx, usecase.ChatInput{
		Query:     req.Query,
		Language:  domain.Language(req.Language),
		Tags:      req.Tags,
		Source:    req.Source,
		MaxTokens: req.MaxTokens,
	})

	terminal := "done"
	for token := range tokens {
		data, err := json.Marshal(streamToken{Kind: string(token.Kind), Payload: token.Payload})
		if err != nil {
			log.Error("failed to marshal stream token", slog.String("error", err.Error()))
			continue
		}
		if _, err := c.Response().Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			// Client gone; the cancelled request context stops the stream.
			terminal = "disconnected"
			break
		}
		flusher.Flush()
	}
	log.Info("chat_stream_finished", slog.String("terminal", terminal))
	metrics.ChatStreamsTotal.WithLabelValues(terminal).Inc()
	return nil
}

type retrieveRequest struct {
	Query    string   `json:"query"`
	Language string   `json:"language"`
	Tags     []string `json:"tags"`
	Source   string   `json:"source"`
	Limit    int      `json:"limit"`
}

type retrievedDocument struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	URL        string   `json:"url,omitempty"`
	Language   string   `json:"language"`
	Score      float64  `json:"score"`
	Strategies []string `json:"strategies"`
}

// Retrieve runs the matching pipeline without generation. Used by the
// frontend's source panel and for retrieval debugging.
func (h *Handler) Retrieve(c echo.Context) error {
	var req retrieveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}

	ctx := logger.WithRequestID(c.Request().Context(), uuid.NewString())
	start := time.Now()
	merged, err := h.orchestrator.Retrieve(ctx, domain.Query{
		Text:     req.Query,
		Language: domain.Language(req.Language),
		Tags:     req.Tags,
		Source:   req.Source,
		Limit:    req.Limit,
	})
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if err == retrieval.ErrNoDocuments {
			metrics.RetrievalRequestsTotal.WithLabelValues("no_docs").Inc()
			return c.JSON(http.StatusOK, map[string]interface{}{
				"documents": []retrievedDocument{},
			})
		}
		metrics.RetrievalRequestsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	metrics.RetrievalRequestsTotal.WithLabelValues("ok").Inc()

	docs := make([]retrievedDocument, 0, len(merged.Documents))
	for _, ranked := range merged.Documents {
		strategies := make([]string, len(ranked.Strategies))
		for i, s := range ranked.Strategies {
			strategies[i] = string(s)
		}
		docs = append(docs, retrievedDocument{
			ID:         ranked.Doc.ID,
			Question:   ranked.Doc.Question,
			Answer:     ranked.Doc.Answer,
			URL:        ranked.Doc.URL,
			Language:   string(ranked.Doc.Language),
			Score:      ranked.Score,
			Strategies: strategies,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documents": docs})
}

// Autocomplete suggests stored questions for a partial input.
func (h *Handler) Autocomplete(c echo.Context) error {
	question := c.QueryParam("question")
	if question == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "question is required"})
	}
	ctx := logger.WithRequestID(c.Request().Context(), uuid.NewString())
	suggestions, err := h.autocomplete.Suggest(ctx, usecase.AutocompleteInput{
		Question: question,
		Language: domain.Language(c.QueryParam("language")),
		Tags:     c.QueryParams()["tag"],
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

type agentRequest struct {
	Query    string `json:"query"`
	Language string `json:"language"`
}

// AgentAnswer routes the query to an agent. Pension calculations are
// answered directly; everything else reports the handoff so the caller can
// follow up on the chat stream.
func (h *Handler) AgentAnswer(c echo.Context) error {
	var req agentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}
	lang := domain.Language(req.Language)
	ctx := logger.WithRequestID(c.Request().Context(), uuid.NewString())

	handoff, err := h.router.DetectIntent(ctx, req.Query, lang)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	ctx = logger.WithAgent(ctx, string(handoff.To))

	resp := map[string]interface{}{
		"agent":  string(handoff.To),
		"status": usecase.HandoffStatusMessage(lang, string(handoff.To)),
	}
	if handoff.To == domain.AgentPension {
		answer, err := h.router.RunPensionAgent(ctx, req.Query, lang)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{
				"agent": string(handoff.To),
				"error": err.Error(),
			})
		}
		resp["answer"] = answer
	}
	return c.JSON(http.StatusOK, resp)
}

type pensionRequest struct {
	DateOfBirth         string  `json:"date_of_birth"`
	RetirementDate      string  `json:"retirement_date"`
	AverageAnnualIncome float64 `json:"average_annual_income"`
	Language            string  `json:"language"`
}

// PensionEarlyRetirement computes the transitional-generation reduction
// rate or supplement from explicit parameters, no LLM involved.
func (h *Handler) PensionEarlyRetirement(c echo.Context) error {
	var req pensionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid date_of_birth"})
	}
	retirement, err := time.Parse("2006-01-02", req.RetirementDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid retirement_date"})
	}

	result, err := usecase.CalculateEarlyRetirement(usecase.EarlyRetirementInput{
		DateOfBirth:         dob,
		RetirementDate:      retirement,
		AverageAnnualIncome: req.AverageAnnualIncome,
	})
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	lang := domain.Language(req.Language)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"early":                result.Early,
		"reduction_rate":       result.ReductionRate,
		"supplement":           result.Supplement,
		"income_bracket":       result.IncomeBracket,
		"reference_age_months": result.ReferenceAgeMonths,
		"message":              usecase.FormatEarlyRetirement(result, lang),
	})
}
