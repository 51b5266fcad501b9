package domain

import "context"

// StoreHit is a raw document store match before strategy-level score
// normalization.
type StoreHit struct {
	Doc Document
	// RawScore is metric-specific: edit distance for fuzzy search, trigram
	// similarity for trigram search, normalized similarity for semantic
	// search. Zero for exact search.
	RawScore float64
}

// DocumentStore is the retrieval-side view of the FAQ corpus
// (Postgres + pgvector + fuzzystrmatch + pg_trgm behind it).
type DocumentStore interface {
	// ExactSearch returns documents containing the query as a
	// case-insensitive substring, ordered by document ID ascending.
	ExactSearch(ctx context.Context, q Query, limit int) ([]StoreHit, error)

	// FuzzySearch returns documents whose question is within maxDistance
	// edits of the query, ordered by distance ascending then ID ascending.
	// RawScore carries the edit distance.
	FuzzySearch(ctx context.Context, q Query, maxDistance, limit int) ([]StoreHit, error)

	// TrigramSearch returns documents with trigram similarity >= threshold,
	// ordered by similarity descending. RawScore carries the similarity.
	TrigramSearch(ctx context.Context, q Query, threshold float64, limit int) ([]StoreHit, error)

	// SemanticSearch embeds the query text and returns the nearest documents
	// under the given metric. RawScore is normalized onto [0,1] by the store
	// so it can be merged with other strategies' scores.
	SemanticSearch(ctx context.Context, text string, q Query, metric VectorMetric, limit int) ([]StoreHit, error)

	// AllDocuments returns the filtered corpus for in-process lexical
	// scoring (BM25).
	AllDocuments(ctx context.Context, q Query) ([]Document, error)

	// GetByIDs resolves document references to full documents.
	GetByIDs(ctx context.Context, ids []string) (map[string]Document, error)
}
