package retrieval

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/logger"
	"ahv-copilot/internal/infra/metrics"
)

// ErrNoDocuments reports that every enabled strategy completed (or failed)
// without producing a single candidate. Callers treat it as a distinct
// outcome, not a failure: the store is reachable, it just has nothing for
// this query.
var ErrNoDocuments = errors.New("retrieval: no documents matched")

// Orchestrator fans a query out to every enabled strategy concurrently and
// merges whatever arrives before the deadline. A slow or failing strategy
// degrades the result, it never sinks the request.
type Orchestrator struct {
	retrievers []Retriever
	compressor *Compressor
	cfg        MatchingConfig
	logger     *slog.Logger
}

// Deps carries the external collaborators the strategies draw on.
type Deps struct {
	Store   domain.DocumentStore
	LLM     domain.LLMClient
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// NewOrchestrator validates the config and builds the fixed retriever set
// for it. The set is closed at construction: a request cannot enable a
// strategy the config did not.
func NewOrchestrator(deps Deps, cfg MatchingConfig) *Orchestrator {
	cfg = cfg.Normalize()

	var retrievers []Retriever
	if cfg.Exact.Enabled {
		retrievers = append(retrievers, &ExactRetriever{Store: deps.Store, Params: cfg.Exact})
	}
	if cfg.Fuzzy.Enabled {
		retrievers = append(retrievers, &FuzzyRetriever{Store: deps.Store, Params: cfg.Fuzzy})
	}
	if cfg.Trigram.Enabled {
		retrievers = append(retrievers, &TrigramRetriever{Store: deps.Store, Params: cfg.Trigram})
	}
	if cfg.Semantic.Enabled {
		retrievers = append(retrievers, &SemanticRetriever{Store: deps.Store, Params: cfg.Semantic})
	}
	if cfg.BM25.Enabled {
		retrievers = append(retrievers, &BM25Retriever{Store: deps.Store, Params: cfg.BM25})
	}
	if cfg.Rewrite.Enabled {
		retrievers = append(retrievers, &RewriteRetriever{
			Store: deps.Store, LLM: deps.LLM, Limiter: deps.Limiter,
			Params: cfg.Rewrite, Logger: deps.Logger,
		})
	}
	if cfg.Fusion.Enabled {
		retrievers = append(retrievers, &FusionRetriever{
			Store: deps.Store, LLM: deps.LLM, Limiter: deps.Limiter,
			Params: cfg.Fusion, Logger: deps.Logger,
		})
	}
	if cfg.TopK.Enabled || len(retrievers) == 0 {
		// With nothing else enabled the plain vector baseline always runs,
		// so a misconfigured deployment still answers.
		params := cfg.TopK
		params.Enabled = true
		retrievers = append(retrievers, &TopKRetriever{Store: deps.Store, Params: params})
	}

	var compressor *Compressor
	if cfg.Compression.Enabled {
		compressor = &Compressor{LLM: deps.LLM, Logger: deps.Logger}
	}

	return &Orchestrator{
		retrievers: retrievers,
		compressor: compressor,
		cfg:        cfg,
		logger:     deps.Logger,
	}
}

type strategyResult struct {
	strategy   domain.Strategy
	candidates []domain.Candidate
	err        error
}

// Retrieve runs every configured strategy against the query and returns the
// merged ranking. Strategies still running at the deadline are abandoned;
// results already collected are merged as a partial answer. ErrNoDocuments
// is returned when the merged result is empty.
func (o *Orchestrator) Retrieve(ctx context.Context, q domain.Query) (domain.MergedResult, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Deadline)
	defer cancel()
	log := logger.Enrich(ctx, o.logger)

	results := make(chan strategyResult, len(o.retrievers))
	for _, r := range o.retrievers {
		rctx := logger.WithStrategy(ctx, string(r.Strategy()))
		go func() {
			candidates, err := r.Retrieve(rctx, q)
			select {
			case results <- strategyResult{strategy: r.Strategy(), candidates: candidates, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	lists := make(map[domain.Strategy][]domain.Candidate, len(o.retrievers))
	pending := len(o.retrievers)
	var failed int

collect:
	for pending > 0 {
		select {
		case res := <-results:
			pending--
			if res.err != nil {
				failed++
				metrics.RetrievalStrategyFailuresTotal.WithLabelValues(string(res.strategy)).Inc()
				log.Warn("strategy_failed",
					slog.String("strategy", string(res.strategy)),
					slog.String("query", q.Text),
					slog.String("error", res.err.Error()))
				continue
			}
			lists[res.strategy] = res.candidates
		case <-ctx.Done():
			log.Warn("retrieval_deadline_reached",
				slog.String("query", q.Text),
				slog.Int("pending_strategies", pending),
				slog.Duration("deadline", o.cfg.Deadline))
			break collect
		}
	}

	limit := o.cfg.ResultLimit()
	if q.Limit > 0 && q.Limit < limit {
		limit = q.Limit
	}
	merged := Merge(lists, limit)

	if o.compressor != nil && !merged.Empty() {
		merged = o.compressor.Compress(ctx, q, merged)
	}

	log.Info("retrieval_completed",
		slog.String("query", q.Text),
		slog.Int("strategies", len(o.retrievers)),
		slog.Int("failed", failed),
		slog.Int("result_count", len(merged.Documents)),
		slog.Duration("elapsed", time.Since(start)))

	if merged.Empty() {
		return domain.MergedResult{}, ErrNoDocuments
	}
	return merged, nil
}

// Strategies reports the enabled strategy names, in launch order. Used for
// logging and the retrieval debug endpoint.
func (o *Orchestrator) Strategies() []domain.Strategy {
	names := make([]domain.Strategy, len(o.retrievers))
	for i, r := range o.retrievers {
		names[i] = r.Strategy()
	}
	return names
}
