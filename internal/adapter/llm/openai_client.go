package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/httpclient"
	"ahv-copilot/internal/infra/metrics"
)

// Config holds the settings for the OpenAI-compatible chat provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	TopP        float32
	Logger      *slog.Logger
}

// Client calls an OpenAI-compatible chat completion API. A circuit breaker
// guards the non-streaming path: classifier and rephrasing calls fail fast
// while the provider is down instead of stacking up timeouts.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	breaker     *gobreaker.CircuitBreaker[openai.ChatCompletionResponse]
	logger      *slog.Logger
}

// NewClient creates the chat completion client.
func NewClient(cfg *Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	// No client-level timeout: streaming responses outlive any sane fixed
	// deadline and are cancelled through the request context.
	clientCfg.HTTPClient = httpclient.NewPooledClient(0)

	breaker := gobreaker.NewCircuitBreaker[openai.ChatCompletionResponse](gobreaker.Settings{
		Name:    "llm-complete",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 >= counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("circuit_breaker_state_change",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		breaker:     breaker,
		logger:      cfg.Logger,
	}
}

func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (openai.ChatCompletionResponse, error) {
		return c.client.CreateChatCompletion(ctx, c.request(messages, maxTokens))
	})
	metrics.LLMRequestDuration.WithLabelValues(c.model, "complete").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "complete", "error").Inc()
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "complete", "error").Inc()
		return "", fmt.Errorf("empty completion response")
	}
	metrics.LLMRequestsTotal.WithLabelValues(c.model, "complete", "success").Inc()
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) CompleteStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan domain.StreamChunk, <-chan error, error) {
	req := c.request(messages, maxTokens)
	req.Stream = true

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "stream", "error").Inc()
		return nil, nil, parseAPIError(err)
	}

	chunks := make(chan domain.StreamChunk, 8)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				metrics.LLMRequestsTotal.WithLabelValues(c.model, "stream", "success").Inc()
				select {
				case chunks <- domain.StreamChunk{Done: true}:
				case <-ctx.Done():
				}
				return
			}
			if err != nil {
				metrics.LLMRequestsTotal.WithLabelValues(c.model, "stream", "error").Inc()
				select {
				case errs <- parseAPIError(err):
				case <-ctx.Done():
				}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}
			select {
			case chunks <- domain.StreamChunk{Content: content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, errs, nil
}

func (c *Client) request(messages []domain.ChatMessage, maxTokens int) openai.ChatCompletionRequest {
	converted := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		converted[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}
}

func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("llm API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("llm request error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}
	return fmt.Errorf("llm request failed: %w", err)
}
