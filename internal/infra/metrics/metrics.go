package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetrievalRequestsTotal counts retrieval runs by outcome (ok, no_docs,
	// error).
	RetrievalRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_retrieval_requests_total",
		Help: "Retrieval runs by outcome.",
	}, []string{"outcome"})

	// RetrievalStrategyFailuresTotal counts per-strategy failures. Failures
	// are non-fatal; this is the signal a strategy is degrading.
	RetrievalStrategyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_retrieval_strategy_failures_total",
		Help: "Non-fatal strategy failures during retrieval.",
	}, []string{"strategy"})

	// RetrievalDuration observes the end-to-end retrieval latency.
	RetrievalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "copilot_retrieval_duration_seconds",
		Help:    "End-to-end retrieval latency.",
		Buckets: prometheus.DefBuckets,
	})

	// LLMRequestsTotal counts chat completion calls by model, kind and
	// status.
	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_llm_requests_total",
		Help: "LLM API calls by model, kind and status.",
	}, []string{"model", "kind", "status"})

	// LLMRequestDuration observes chat completion latency.
	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copilot_llm_request_duration_seconds",
		Help:    "LLM API call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model", "kind"})

	// EmbeddingRequestsTotal counts embedding calls by model and status.
	EmbeddingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_embedding_requests_total",
		Help: "Embedding API calls by model and status.",
	}, []string{"model", "status"})

	// EmbeddingRequestDuration observes embedding call latency.
	EmbeddingRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copilot_embedding_request_duration_seconds",
		Help:    "Embedding API call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	// ChatStreamsTotal counts chat streams by terminal state.
	ChatStreamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copilot_chat_streams_total",
		Help: "Chat streams by terminal state.",
	}, []string{"state"})
)
