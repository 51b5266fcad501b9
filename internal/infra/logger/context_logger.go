package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Request-scoped keys carried through a request's context.
	RequestIDKey ContextKey = "copilot.request.id"
	StrategyKey  ContextKey = "copilot.retrieval.strategy"
	AgentKey     ContextKey = "copilot.agent"
)

// ContextLogger wraps the application logger and stamps records with the
// request-scoped fields found in the context.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger wraps base; serviceName is added to every record.
func NewContextLogger(base *slog.Logger, serviceName string) *ContextLogger {
	return &ContextLogger{logger: base, serviceName: serviceName}
}

// WithContext returns a logger with the context values added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	return Enrich(ctx, cl.logger.With("service", cl.serviceName))
}

// Enrich returns base with any request-scoped context fields appended. Used
// by components that receive a construction-time logger but log per request.
func Enrich(ctx context.Context, base *slog.Logger) *slog.Logger {
	var fields []any
	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		fields = append(fields, string(RequestIDKey), requestID)
	}
	if strategy := ctx.Value(StrategyKey); strategy != nil {
		fields = append(fields, string(StrategyKey), strategy)
	}
	if agent := ctx.Value(AgentKey); agent != nil {
		fields = append(fields, string(AgentKey), agent)
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// WithRequestID adds the request ID to the context for observability.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithStrategy adds the retrieval strategy name to the context.
func WithStrategy(ctx context.Context, strategy string) context.Context {
	return context.WithValue(ctx, StrategyKey, strategy)
}

// WithAgent adds the answering agent name to the context.
func WithAgent(ctx context.Context, agent string) context.Context {
	return context.WithValue(ctx, AgentKey, agent)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug", "DEBUG":
		return slog.LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return slog.LevelWarn
	case "error", "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
