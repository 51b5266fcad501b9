package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/logger"
)

var rephrasePrompts = map[domain.Language]string{
	domain.LanguageGerman: `Sie sind ein Experte für Suchanfragen zur AHV/IV.
Formulieren Sie die folgende Frage in %d verschiedene Varianten um (Synonyme, andere Satzstellung, Aussagesatz statt Frage).
Geben Sie NUR die Varianten aus, eine pro Zeile, ohne Nummerierung oder Erklärungen.

Frage: %s`,
	domain.LanguageFrench: `Vous êtes un expert des requêtes de recherche concernant l'AVS/AI.
Reformulez la question suivante en %d variantes différentes (synonymes, autre structure, forme déclarative).
Ne donnez QUE les variantes, une par ligne, sans numérotation ni explications.

Question : %s`,
	domain.LanguageItalian: `Lei è un esperto di query di ricerca sull'AVS/AI.
Riformuli la seguente domanda in %d varianti diverse (sinonimi, altra struttura, forma dichiarativa).
Fornisca SOLO le varianti, una per riga, senza numerazione né spiegazioni.

Domanda: %s`,
}

const rephraseMaxTokens = 256

// rephrase asks the LLM for n alternative phrasings of the query. The rate
// limiter bounds how fast rewriting strategies may fire LLM calls; a full
// bucket never blocks a single request.
func rephrase(ctx context.Context, llm domain.LLMClient, limiter *rate.Limiter, q domain.Query, n int) ([]string, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rephrase rate limit: %w", err)
		}
	}

	tmpl, ok := rephrasePrompts[q.Language]
	if !ok {
		tmpl = rephrasePrompts[domain.DefaultLanguage]
	}

	resp, err := llm.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(tmpl, n, q.Text)},
	}, rephraseMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("rephrase completion: %w", err)
	}

	var variants []string
	for _, line := range strings.Split(resp, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && trimmed != q.Text {
			variants = append(variants, trimmed)
		}
	}
	if len(variants) > n {
		variants = variants[:n]
	}
	return variants, nil
}

// RewriteRetriever bridges lexical gaps between phrasing and stored text by
// searching with several LLM rephrasings of the query and unioning the
// results. Costs Alternates extra external calls per request, all bounded by
// the request deadline.
type RewriteRetriever struct {
	Store   domain.DocumentStore
	LLM     domain.LLMClient
	Limiter *rate.Limiter
	Params  RewriteParams
	Logger  *slog.Logger
}

func (r *RewriteRetriever) Strategy() domain.Strategy { return domain.StrategyRewrite }

func (r *RewriteRetriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	variants, err := rephrase(ctx, r.LLM, r.Limiter, q, r.Params.Alternates)
	if err != nil {
		return nil, err
	}
	queries := append([]string{q.Text}, variants...)

	logger.Enrich(ctx, r.Logger).Info("query_rewritten",
		slog.String("original", q.Text),
		slog.Int("variant_count", len(variants)))

	lists, err := searchVariants(ctx, r.Store, q, queries, r.Params.Limit)
	if err != nil {
		return nil, err
	}

	// Union across variants, keeping the best similarity per document.
	best := make(map[string]domain.StoreHit)
	var order []string
	for _, hits := range lists {
		for _, hit := range hits {
			prev, seen := best[hit.Doc.ID]
			if !seen {
				best[hit.Doc.ID] = hit
				order = append(order, hit.Doc.ID)
			} else if hit.RawScore > prev.RawScore {
				best[hit.Doc.ID] = hit
			}
		}
	}

	candidates := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		hit := best[id]
		candidates = append(candidates, domain.Candidate{
			Doc:      hit.Doc,
			Score:    hit.RawScore,
			Strategy: domain.StrategyRewrite,
		})
	}
	sortCandidates(candidates)
	if len(candidates) > r.Params.Limit {
		candidates = candidates[:r.Params.Limit]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates, nil
}

// searchVariants runs one semantic search per query variant concurrently and
// returns the per-variant rank lists in input order.
func searchVariants(ctx context.Context, store domain.DocumentStore, q domain.Query, queries []string, limit int) ([][]domain.StoreHit, error) {
	lists := make([][]domain.StoreHit, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, text := range queries {
		g.Go(func() error {
			hits, err := store.SemanticSearch(gctx, text, q, domain.MetricCosine, limit)
			if err != nil {
				return fmt.Errorf("variant search %q: %w", text, err)
			}
			lists[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lists, nil
}
