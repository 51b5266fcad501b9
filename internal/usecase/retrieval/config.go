package retrieval

import (
	"time"

	"ahv-copilot/internal/domain"
)

// Defaults applied by Normalize when a configured value is out of range.
// The matching layer favors availability over strict validation: invalid
// values are clamped to these, never rejected mid-request.
const (
	DefaultLimit          = 10
	DefaultFuzzyLimit     = 50
	DefaultFuzzyThreshold = 10
	DefaultTrigramScore   = 0.4
	DefaultAlternates     = 3
	DefaultRRFK           = 60.0
	DefaultBM25K1         = 1.2
	DefaultBM25B          = 0.75
	DefaultDeadline       = 15 * time.Second
)

// ExactParams configures case-insensitive substring matching.
type ExactParams struct {
	Enabled bool
	Limit   int
}

// FuzzyParams configures Levenshtein matching. Threshold is the maximum
// accepted edit distance.
type FuzzyParams struct {
	Enabled   bool
	Limit     int
	Threshold int
}

// TrigramParams configures trigram-overlap matching. Threshold is the
// minimum accepted similarity in [0,1].
type TrigramParams struct {
	Enabled   bool
	Limit     int
	Threshold float64
}

// SemanticParams configures vector similarity search.
type SemanticParams struct {
	Enabled bool
	Limit   int
	Metric  domain.VectorMetric
}

// BM25Params configures in-process lexical ranking.
type BM25Params struct {
	Enabled bool
	Limit   int
	K1      float64
	B       float64
}

// RewriteParams configures the query-rewriting strategy. Alternates is the
// number of LLM rephrasings requested per query.
type RewriteParams struct {
	Enabled    bool
	Limit      int
	Alternates int
}

// FusionParams configures RAG fusion (reciprocal rank fusion over the
// rephrased queries' rank lists).
type FusionParams struct {
	Enabled    bool
	Limit      int
	Alternates int
	RRFK       float64
}

// CompressionParams configures LLM contextual compression of already
// retrieved documents.
type CompressionParams struct {
	Enabled bool
}

// TopKParams configures the plain top-k baseline. It is forced on when every
// ranking strategy is disabled so retrieval always has a path.
type TopKParams struct {
	Enabled bool
	Limit   int
}

// MatchingConfig holds the validated parameter record of every strategy.
// Loaded once at process start; immutable during a request. Hot reload is an
// explicit swap between requests, never an in-flight mutation.
type MatchingConfig struct {
	Exact       ExactParams
	Fuzzy       FuzzyParams
	Trigram     TrigramParams
	Semantic    SemanticParams
	BM25        BM25Params
	Rewrite     RewriteParams
	Fusion      FusionParams
	Compression CompressionParams
	TopK        TopKParams

	// Deadline bounds one retrieval run; a strategy still in flight when it
	// expires contributes nothing.
	Deadline time.Duration
}

// DefaultMatchingConfig mirrors the tuning the corpus ships with.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		Exact:    ExactParams{Enabled: true, Limit: DefaultLimit},
		Fuzzy:    FuzzyParams{Enabled: true, Limit: DefaultFuzzyLimit, Threshold: DefaultFuzzyThreshold},
		Trigram:  TrigramParams{Enabled: false, Limit: DefaultLimit, Threshold: DefaultTrigramScore},
		Semantic: SemanticParams{Enabled: true, Limit: DefaultLimit, Metric: domain.MetricCosine},
		BM25:     BM25Params{Enabled: false, Limit: DefaultLimit, K1: DefaultBM25K1, B: DefaultBM25B},
		Rewrite:  RewriteParams{Enabled: false, Limit: DefaultLimit, Alternates: DefaultAlternates},
		Fusion:   FusionParams{Enabled: true, Limit: DefaultLimit, Alternates: DefaultAlternates, RRFK: DefaultRRFK},
		TopK:     TopKParams{Enabled: true, Limit: DefaultLimit},
		Deadline: DefaultDeadline,
	}
}

// Normalize clamps out-of-range values to their documented defaults and
// returns the corrected config. It never fails: a bad value must degrade to
// a default, not take the service down.
func (c MatchingConfig) Normalize() MatchingConfig {
	if c.Exact.Limit < 0 {
		c.Exact.Limit = DefaultLimit
	}
	if c.Fuzzy.Limit < 0 {
		c.Fuzzy.Limit = DefaultFuzzyLimit
	}
	if c.Fuzzy.Threshold < 0 {
		c.Fuzzy.Threshold = DefaultFuzzyThreshold
	}
	if c.Trigram.Limit < 0 {
		c.Trigram.Limit = DefaultLimit
	}
	if c.Trigram.Threshold < 0 || c.Trigram.Threshold > 1 {
		c.Trigram.Threshold = DefaultTrigramScore
	}
	if c.Semantic.Limit < 0 {
		c.Semantic.Limit = DefaultLimit
	}
	if !c.Semantic.Metric.Valid() {
		c.Semantic.Metric = domain.MetricCosine
	}
	if c.BM25.Limit < 0 {
		c.BM25.Limit = DefaultLimit
	}
	if c.BM25.K1 <= 0 {
		c.BM25.K1 = DefaultBM25K1
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		c.BM25.B = DefaultBM25B
	}
	if c.Rewrite.Limit < 0 {
		c.Rewrite.Limit = DefaultLimit
	}
	if c.Rewrite.Alternates <= 0 {
		c.Rewrite.Alternates = DefaultAlternates
	}
	if c.Fusion.Limit < 0 {
		c.Fusion.Limit = DefaultLimit
	}
	if c.Fusion.Alternates <= 0 {
		c.Fusion.Alternates = DefaultAlternates
	}
	if c.Fusion.RRFK <= 0 {
		c.Fusion.RRFK = DefaultRRFK
	}
	if c.TopK.Limit < 0 {
		c.TopK.Limit = DefaultLimit
	}
	if c.Deadline <= 0 {
		c.Deadline = DefaultDeadline
	}
	return c
}

// ResultLimit is the overall merged-result limit: the largest limit among
// enabled strategies, or DefaultLimit when none is enabled.
func (c MatchingConfig) ResultLimit() int {
	limit := 0
	consider := func(enabled bool, l int) {
		if enabled && l > limit {
			limit = l
		}
	}
	consider(c.Exact.Enabled, c.Exact.Limit)
	consider(c.Fuzzy.Enabled, c.Fuzzy.Limit)
	consider(c.Trigram.Enabled, c.Trigram.Limit)
	consider(c.Semantic.Enabled, c.Semantic.Limit)
	consider(c.BM25.Enabled, c.BM25.Limit)
	consider(c.Rewrite.Enabled, c.Rewrite.Limit)
	consider(c.Fusion.Enabled, c.Fusion.Limit)
	consider(c.TopK.Enabled, c.TopK.Limit)
	if limit == 0 {
		limit = DefaultLimit
	}
	return limit
}
