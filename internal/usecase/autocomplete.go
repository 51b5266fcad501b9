package usecase

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"ahv-copilot/internal/domain"
)

const (
	// Below this many trigram matches the semantic fallback kicks in.
	autocompleteMinMatches   = 5
	autocompleteCacheEntries = 1024
)

// AutocompleteInput is one typed-so-far user input to complete.
type AutocompleteInput struct {
	Question string
	Language domain.Language
	Tags     []string
	Limit    int
}

// AutocompleteUsecase suggests stored FAQ questions matching a partial
// input.
type AutocompleteUsecase interface {
	Suggest(ctx context.Context, input AutocompleteInput) ([]string, error)
}

type autocompleteUsecase struct {
	store            domain.DocumentStore
	trigramThreshold float64
	limit            int
	// semanticCache holds semantic suggestion lists keyed per question and
	// language. Semantic matching only runs on completed questions, so
	// repeats of the same question are common.
	semanticCache *lru.Cache[string, []string]
	logger        *slog.Logger
}

// NewAutocompleteUsecase builds the suggestion service. limit caps the
// returned list, trigramThreshold is the minimum trigram similarity.
func NewAutocompleteUsecase(store domain.DocumentStore, limit int, trigramThreshold float64, logger *slog.Logger) (AutocompleteUsecase, error) {
	cache, err := lru.New[string, []string](autocompleteCacheEntries)
	if err != nil {
		return nil, fmt.Errorf("semantic suggestion cache: %w", err)
	}
	return &autocompleteUsecase{
		store:            store,
		trigramThreshold: trigramThreshold,
		limit:            limit,
		semanticCache:    cache,
		logger:           logger,
	}, nil
}

// Suggest returns trigram matches for the partial input. When those are
// sparse and the input is a completed question (ends with "?"), semantic
// matches are appended, deduplicated in order.
func (u *autocompleteUsecase) Suggest(ctx context.Context, input AutocompleteInput) ([]string, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = u.limit
	}
	q := domain.Query{
		Text:     question,
		Language: input.Language,
		Tags:     input.Tags,
	}

	hits, err := u.store.TrigramSearch(ctx, q, u.trigramThreshold, limit)
	if err != nil {
		return nil, fmt.Errorf("trigram suggestions: %w", err)
	}
	suggestions := make([]string, 0, len(hits))
	for _, hit := range hits {
		suggestions = append(suggestions, hit.Doc.Question)
	}

	if len(suggestions) >= autocompleteMinMatches || !strings.HasSuffix(question, "?") {
		return suggestions, nil
	}

	semantic, err := u.semanticSuggestions(ctx, q, limit)
	if err != nil {
		// Trigram results alone still serve the user.
		u.logger.Warn("semantic_suggestions_failed",
			slog.String("question", question),
			slog.String("error", err.Error()))
		return suggestions, nil
	}

	seen := make(map[string]bool, len(suggestions))
	merged := make([]string, 0, len(suggestions)+len(semantic))
	for _, s := range append(suggestions, semantic...) {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (u *autocompleteUsecase) semanticSuggestions(ctx context.Context, q domain.Query, limit int) ([]string, error) {
	key := fmt.Sprintf("%x", md5.Sum([]byte(q.Text+"_"+string(q.Language))))
	if cached, ok := u.semanticCache.Get(key); ok {
		return cached, nil
	}

	hits, err := u.store.SemanticSearch(ctx, q.Text, q, domain.MetricCosine, limit)
	if err != nil {
		return nil, err
	}
	suggestions := make([]string, 0, len(hits))
	for _, hit := range hits {
		suggestions = append(suggestions, hit.Doc.Question)
	}
	u.semanticCache.Add(key, suggestions)
	return suggestions, nil
}
