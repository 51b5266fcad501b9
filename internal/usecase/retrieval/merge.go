package retrieval

import (
	"sort"

	"ahv-copilot/internal/domain"
)

// Merge deduplicates and ranks the candidate lists of all strategies into
// one ordered result. Duplicates keep the maximum normalized score and
// record every contributing strategy. Ordering is combined score descending,
// then contributing-strategy count descending (multi-strategy consensus
// wins ties), then document ID ascending. The output is truncated to limit.
//
// Merge makes no external calls and is fully deterministic given its inputs.
func Merge(lists map[domain.Strategy][]domain.Candidate, limit int) domain.MergedResult {
	if limit <= 0 {
		limit = DefaultLimit
	}

	type entry struct {
		doc        domain.Document
		score      float64
		strategies map[domain.Strategy]bool
	}
	entries := make(map[string]*entry)

	// Iterate strategies in a fixed order so map iteration cannot influence
	// which duplicate's document metadata survives.
	strategies := make([]domain.Strategy, 0, len(lists))
	for s := range lists {
		strategies = append(strategies, s)
	}
	sort.Slice(strategies, func(i, j int) bool { return strategies[i] < strategies[j] })

	for _, strategy := range strategies {
		for _, cand := range lists[strategy] {
			e, ok := entries[cand.Doc.ID]
			if !ok {
				e = &entry{
					doc:        cand.Doc,
					score:      cand.Score,
					strategies: make(map[domain.Strategy]bool),
				}
				entries[cand.Doc.ID] = e
			}
			if cand.Score > e.score {
				e.score = cand.Score
			}
			e.strategies[cand.Strategy] = true
		}
	}

	ranked := make([]domain.RankedDocument, 0, len(entries))
	for _, e := range entries {
		provenance := make([]domain.Strategy, 0, len(e.strategies))
		for s := range e.strategies {
			provenance = append(provenance, s)
		}
		sort.Slice(provenance, func(i, j int) bool { return provenance[i] < provenance[j] })
		ranked = append(ranked, domain.RankedDocument{
			Doc:        e.doc,
			Score:      e.score,
			Strategies: provenance,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if len(ranked[i].Strategies) != len(ranked[j].Strategies) {
			return len(ranked[i].Strategies) > len(ranked[j].Strategies)
		}
		return ranked[i].Doc.ID < ranked[j].Doc.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return domain.MergedResult{Documents: ranked}
}
