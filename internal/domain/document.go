package domain

// Language is one of the supported interface languages of the FAQ corpus.
type Language string

const (
	LanguageGerman  Language = "de"
	LanguageFrench  Language = "fr"
	LanguageItalian Language = "it"
)

// DefaultLanguage is used when a request carries an unknown language code.
// Most of the corpus is only available in German.
const DefaultLanguage = LanguageGerman

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	switch l {
	case LanguageGerman, LanguageFrench, LanguageItalian:
		return true
	}
	return false
}

// Document is one FAQ entry as stored in the document store.
type Document struct {
	ID       string
	Question string
	Answer   string
	Text     string
	URL      string
	Language Language
	Tags     []string
	Source   string
}

// Query is the immutable per-request retrieval input.
type Query struct {
	Text     string
	Language Language
	Tags     []string
	Source   string
	// Limit overrides the aggregator's result limit when > 0.
	Limit int
}

// Strategy identifies a retrieval strategy. The set is closed; dispatch is
// resolved once at configuration load, not per request.
type Strategy string

const (
	StrategyExact       Strategy = "exact"
	StrategyFuzzy       Strategy = "fuzzy"
	StrategyTrigram     Strategy = "trigram"
	StrategySemantic    Strategy = "semantic"
	StrategyBM25        Strategy = "bm25"
	StrategyRewrite     Strategy = "query_rewriting"
	StrategyFusion      Strategy = "rag_fusion"
	StrategyCompression Strategy = "contextual_compression"
	StrategyTopK        Strategy = "top_k"
)

// Candidate is one retrieved document with the score a single strategy
// assigned to it. Never mutated after creation; ordering is imposed only by
// the aggregator.
type Candidate struct {
	Doc      Document
	Score    float64
	Strategy Strategy
	// Rank is the 1-indexed position within the producing strategy's list.
	Rank int
}

// RankedDocument is one entry of a MergedResult: a unique document with its
// combined score and the strategies that contributed it.
type RankedDocument struct {
	Doc        Document
	Score      float64
	Strategies []Strategy
}

// MergedResult is the ordered, deduplicated output of the aggregator.
// Request-scoped; discarded once the response is sent.
type MergedResult struct {
	Documents []RankedDocument
}

// Empty reports whether no strategy contributed any document.
func (m MergedResult) Empty() bool {
	return len(m.Documents) == 0
}

// VectorMetric selects the pgvector distance operator for semantic search.
type VectorMetric string

const (
	MetricCosine       VectorMetric = "cosine_similarity"
	MetricInnerProduct VectorMetric = "inner_product"
	MetricL1           VectorMetric = "l1_distance"
	MetricL2           VectorMetric = "l2_distance"
)

// Valid reports whether m is a supported metric.
func (m VectorMetric) Valid() bool {
	switch m {
	case MetricCosine, MetricInnerProduct, MetricL1, MetricL2:
		return true
	}
	return false
}
