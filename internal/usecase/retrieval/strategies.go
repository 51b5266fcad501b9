package retrieval

import (
	"context"
	"fmt"

	"ahv-copilot/internal/domain"
)

// Retriever turns a query into a ranked candidate list. Implementations are
// finite and not restartable: a fresh call re-runs the underlying search.
type Retriever interface {
	Strategy() domain.Strategy
	Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error)
}

// ExactRetriever matches the query as a case-insensitive substring. Exact
// match has no natural ranking, so every hit scores 1.0 and the store's
// ID-ascending order is the tie-break.
type ExactRetriever struct {
	Store  domain.DocumentStore
	Params ExactParams
}

func (r *ExactRetriever) Strategy() domain.Strategy { return domain.StrategyExact }

func (r *ExactRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	hits, err := r.Store.ExactSearch(ctx, q, r.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}
	candidates := make([]domain.Candidate, 0, len(hits))
	for i, hit := range hits {
		candidates = append(candidates, domain.Candidate{
			Doc:      hit.Doc,
			Score:    1.0,
			Strategy: domain.StrategyExact,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}

// FuzzyRetriever keeps documents within the configured edit distance.
// Score is the inverse distance mapped onto (0,1]: 1/(1+distance).
type FuzzyRetriever struct {
	Store  domain.DocumentStore
	Params FuzzyParams
}

func (r *FuzzyRetriever) Strategy() domain.Strategy { return domain.StrategyFuzzy }

func (r *FuzzyRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	hits, err := r.Store.FuzzySearch(ctx, q, r.Params.Threshold, r.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search: %w", err)
	}
	candidates := make([]domain.Candidate, 0, len(hits))
	for i, hit := range hits {
		candidates = append(candidates, domain.Candidate{
			Doc:      hit.Doc,
			Score:    1.0 / (1.0 + hit.RawScore),
			Strategy: domain.StrategyFuzzy,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}

// TrigramRetriever keeps documents whose trigram similarity reaches the
// configured threshold. The similarity is already in [0,1] and is used as
// the score directly.
type TrigramRetriever struct {
	Store  domain.DocumentStore
	Params TrigramParams
}

func (r *TrigramRetriever) Strategy() domain.Strategy { return domain.StrategyTrigram }

func (r *TrigramRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	hits, err := r.Store.TrigramSearch(ctx, q, r.Params.Threshold, r.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("trigram search: %w", err)
	}
	candidates := make([]domain.Candidate, 0, len(hits))
	for i, hit := range hits {
		candidates = append(candidates, domain.Candidate{
			Doc:      hit.Doc,
			Score:    hit.RawScore,
			Strategy: domain.StrategyTrigram,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}

// SemanticRetriever delegates to the store's vector search under the
// configured metric. The store normalizes the raw similarity onto [0,1].
type SemanticRetriever struct {
	Store  domain.DocumentStore
	Params SemanticParams
}

func (r *SemanticRetriever) Strategy() domain.Strategy { return domain.StrategySemantic }

func (r *SemanticRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	hits, err := r.Store.SemanticSearch(ctx, q.Text, q, r.Params.Metric, r.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	candidates := make([]domain.Candidate, 0, len(hits))
	for i, hit := range hits {
		candidates = append(candidates, domain.Candidate{
			Doc:      hit.Doc,
			Score:    hit.RawScore,
			Strategy: domain.StrategySemantic,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}

// TopKRetriever is the trivial baseline: the top-limit results of the plain
// cosine search with no re-ranking. It backs retrieval when every other
// strategy is disabled.
type TopKRetriever struct {
	Store  domain.DocumentStore
	Params TopKParams
}

func (r *TopKRetriever) Strategy() domain.Strategy { return domain.StrategyTopK }

func (r *TopKRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	hits, err := r.Store.SemanticSearch(ctx, q.Text, q, domain.MetricCosine, r.Params.Limit)
	if err != nil {
		return nil, fmt.Errorf("top-k search: %w", err)
	}
	candidates := make([]domain.Candidate, 0, len(hits))
	for i, hit := range hits {
		candidates = append(candidates, domain.Candidate{
			Doc:      hit.Doc,
			Score:    hit.RawScore,
			Strategy: domain.StrategyTopK,
			Rank:     i + 1,
		})
	}
	return candidates, nil
}
