package retrieval_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/usecase/retrieval"
)

func TestNormalizeClampsInvalidValues(t *testing.T) {
	cfg := retrieval.MatchingConfig{
		Exact:    retrieval.ExactParams{Enabled: true, Limit: -1},
		Fuzzy:    retrieval.FuzzyParams{Enabled: true, Limit: -5, Threshold: -2},
		Trigram:  retrieval.TrigramParams{Enabled: true, Limit: 10, Threshold: 1.5},
		Semantic: retrieval.SemanticParams{Enabled: true, Limit: 10, Metric: "euclidean-ish"},
		BM25:     retrieval.BM25Params{Enabled: true, Limit: 10, K1: 0, B: 2},
		Rewrite:  retrieval.RewriteParams{Enabled: true, Limit: 10, Alternates: 0},
		Fusion:   retrieval.FusionParams{Enabled: true, Limit: 10, Alternates: -1, RRFK: 0},
		Deadline: 0,
	}

	got := cfg.Normalize()

	assert.Equal(t, retrieval.DefaultLimit, got.Exact.Limit)
	assert.Equal(t, retrieval.DefaultFuzzyLimit, got.Fuzzy.Limit)
	assert.Equal(t, retrieval.DefaultFuzzyThreshold, got.Fuzzy.Threshold)
	assert.Equal(t, retrieval.DefaultTrigramScore, got.Trigram.Threshold)
	assert.Equal(t, domain.MetricCosine, got.Semantic.Metric)
	assert.Equal(t, retrieval.DefaultBM25K1, got.BM25.K1)
	assert.Equal(t, retrieval.DefaultBM25B, got.BM25.B)
	assert.Equal(t, retrieval.DefaultAlternates, got.Rewrite.Alternates)
	assert.Equal(t, retrieval.DefaultAlternates, got.Fusion.Alternates)
	assert.Equal(t, retrieval.DefaultRRFK, got.Fusion.RRFK)
	assert.Equal(t, retrieval.DefaultDeadline, got.Deadline)
}

func TestNormalizeKeepsValidValues(t *testing.T) {
	cfg := retrieval.DefaultMatchingConfig()
	cfg.Trigram.Threshold = 0.6
	cfg.Deadline = 5 * time.Second

	got := cfg.Normalize()

	assert.Equal(t, 0.6, got.Trigram.Threshold)
	assert.Equal(t, 5*time.Second, got.Deadline)
}

func TestResultLimitIsLargestEnabledLimit(t *testing.T) {
	cfg := retrieval.MatchingConfig{
		Exact:    retrieval.ExactParams{Enabled: true, Limit: 5},
		Fuzzy:    retrieval.FuzzyParams{Enabled: true, Limit: 50},
		Semantic: retrieval.SemanticParams{Enabled: false, Limit: 100},
	}

	assert.Equal(t, 50, cfg.ResultLimit())
}

func TestResultLimitFallsBackToDefault(t *testing.T) {
	var cfg retrieval.MatchingConfig
	assert.Equal(t, retrieval.DefaultLimit, cfg.ResultLimit())
}
