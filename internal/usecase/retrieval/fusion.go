package retrieval

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/time/rate"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/logger"
)

// FusionRetriever rewrites the query like RewriteRetriever but merges the
// per-variant rank lists with Reciprocal Rank Fusion instead of a plain
// union: score(doc) = sum over variants of 1/(rrf_k + rank). The smoothing
// constant dampens the influence of any single variant's top rank.
type FusionRetriever struct {
	Store   domain.DocumentStore
	LLM     domain.LLMClient
	Limiter *rate.Limiter
	Params  FusionParams
	Logger  *slog.Logger
}

func (r *FusionRetriever) Strategy() domain.Strategy { return domain.StrategyFusion }

func (r *FusionRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	variants, err := rephrase(ctx, r.LLM, r.Limiter, q, r.Params.Alternates)
	if err != nil {
		return nil, err
	}
	queries := append([]string{q.Text}, variants...)

	lists, err := searchVariants(ctx, r.Store, q, queries, r.Params.Limit)
	if err != nil {
		return nil, err
	}

	rankLists := make([][]domain.Document, len(lists))
	for i, hits := range lists {
		docs := make([]domain.Document, len(hits))
		for j, hit := range hits {
			docs[j] = hit.Doc
		}
		rankLists[i] = docs
	}

	fused := ReciprocalRankFusion(rankLists, r.Params.RRFK)

	logger.Enrich(ctx, r.Logger).Info("rag_fusion_completed",
		slog.Int("variant_count", len(queries)),
		slog.Int("fused_count", len(fused)))

	if len(fused) > r.Params.Limit {
		fused = fused[:r.Params.Limit]
	}
	for i := range fused {
		fused[i].Strategy = domain.StrategyFusion
		fused[i].Rank = i + 1
	}
	return fused, nil
}

// ReciprocalRankFusion merges ranked lists by summing 1/(rrfK + rank) per
// document across lists. Ranks are 1-indexed. Output is ordered by fused
// score descending, document ID ascending on ties.
func ReciprocalRankFusion(rankLists [][]domain.Document, rrfK float64) []domain.Candidate {
	type fusedEntry struct {
		doc   domain.Document
		score float64
	}
	fused := make(map[string]*fusedEntry)

	for _, list := range rankLists {
		for rank, doc := range list {
			entry, ok := fused[doc.ID]
			if !ok {
				entry = &fusedEntry{doc: doc}
				fused[doc.ID] = entry
			}
			entry.score += 1.0 / (rrfK + float64(rank+1))
		}
	}

	candidates := make([]domain.Candidate, 0, len(fused))
	for _, entry := range fused {
		candidates = append(candidates, domain.Candidate{
			Doc:   entry.doc,
			Score: entry.score,
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Doc.ID < candidates[j].Doc.ID
	})
	return candidates
}

func sortCandidates(candidates []domain.Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Doc.ID < candidates[j].Doc.ID
	})
}
