package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"ahv-copilot/internal/domain"
)

const documentColumns = "id, question, answer, text, url, language, tags, source"

type documentRepository struct {
	pool     *pgxpool.Pool
	embedder domain.Embedder
}

// NewDocumentRepository creates the Postgres-backed document store. The
// embedder is only used for semantic search; lexical searches run entirely
// in SQL.
func NewDocumentRepository(pool *pgxpool.Pool, embedder domain.Embedder) domain.DocumentStore {
	return &documentRepository{pool: pool, embedder: embedder}
}

// filterClause renders the optional language/tags/source filters shared by
// every search. Conditions are appended to args in order; the returned SQL
// starts with " AND" or is empty.
func filterClause(q domain.Query, args []interface{}) (string, []interface{}) {
	var sb strings.Builder
	if q.Language != "" {
		args = append(args, string(q.Language))
		fmt.Fprintf(&sb, " AND language = $%d", len(args))
	}
	if len(q.Tags) > 0 {
		args = append(args, q.Tags)
		fmt.Fprintf(&sb, " AND tags && $%d", len(args))
	}
	if q.Source != "" {
		args = append(args, q.Source)
		fmt.Fprintf(&sb, " AND source = $%d", len(args))
	}
	return sb.String(), args
}

func (r *documentRepository) ExactSearch(ctx context.Context, q domain.Query, limit int) ([]domain.StoreHit, error) {
	args := []interface{}{"%" + q.Text + "%"}
	filters, args := filterClause(q, args)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s, 1.0 AS score
		FROM faq_documents
		WHERE question ILIKE $1%s
		ORDER BY id ASC
		LIMIT $%d
	`, documentColumns, filters, len(args))

	return r.queryHits(ctx, query, args)
}

func (r *documentRepository) FuzzySearch(ctx context.Context, q domain.Query, maxDistance, limit int) ([]domain.StoreHit, error) {
	args := []interface{}{q.Text, maxDistance}
	filters, args := filterClause(q, args)
	args = append(args, limit)

	// levenshtein_less_equal stops computing once the bound is exceeded,
	// which keeps the scan cheap on long questions.
	query := fmt.Sprintf(`
		SELECT %s, levenshtein(question, $1)::float8 AS score
		FROM faq_documents
		WHERE levenshtein_less_equal(question, $1, $2) < $2%s
		ORDER BY score ASC, id ASC
		LIMIT $%d
	`, documentColumns, filters, len(args))

	return r.queryHits(ctx, query, args)
}

func (r *documentRepository) TrigramSearch(ctx context.Context, q domain.Query, threshold float64, limit int) ([]domain.StoreHit, error) {
	args := []interface{}{q.Text, threshold}
	filters, args := filterClause(q, args)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s, word_similarity($1, question)::float8 AS score
		FROM faq_documents
		WHERE word_similarity($1, question) > $2%s
		ORDER BY score DESC, id ASC
		LIMIT $%d
	`, documentColumns, filters, len(args))

	return r.queryHits(ctx, query, args)
}

// distanceOperators maps each metric onto its pgvector operator.
var distanceOperators = map[domain.VectorMetric]string{
	domain.MetricCosine:       "<=>",
	domain.MetricInnerProduct: "<#>",
	domain.MetricL1:           "<+>",
	domain.MetricL2:           "<->",
}

func (r *documentRepository) SemanticSearch(ctx context.Context, text string, q domain.Query, metric domain.VectorMetric, limit int) ([]domain.StoreHit, error) {
	operator, ok := distanceOperators[metric]
	if !ok {
		return nil, fmt.Errorf("unsupported vector metric %q", metric)
	}

	embeddings, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(embeddings))
	}

	args := []interface{}{pgvector.NewVector(embeddings[0])}
	filters, args := filterClause(q, args)
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s, (question_embedding %s $1)::float8 AS score
		FROM faq_documents
		WHERE question_embedding IS NOT NULL%s
		ORDER BY score ASC, id ASC
		LIMIT $%d
	`, documentColumns, operator, filters, len(args))

	hits, err := r.queryHits(ctx, query, args)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].RawScore = normalizeDistance(metric, hits[i].RawScore)
	}
	return hits, nil
}

// normalizeDistance maps a pgvector distance onto a [0,1] similarity so
// results from different metrics merge on one scale.
func normalizeDistance(metric domain.VectorMetric, distance float64) float64 {
	var score float64
	switch metric {
	case domain.MetricCosine:
		score = 1 - distance
	case domain.MetricInnerProduct:
		// The operator returns the negated inner product; with normalized
		// embeddings the product itself is the similarity.
		score = -distance
	default:
		score = 1 / (1 + distance)
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func (r *documentRepository) AllDocuments(ctx context.Context, q domain.Query) ([]domain.Document, error) {
	args := []interface{}{}
	filters, args := filterClause(q, args)
	where := "TRUE"
	if filters != "" {
		where = "TRUE" + filters
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM faq_documents
		WHERE %s
		ORDER BY id ASC
	`, documentColumns, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *documentRepository) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error) {
	if len(ids) == 0 {
		return map[string]domain.Document{}, nil
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM faq_documents
		WHERE id = ANY($1)
	`, documentColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by id: %w", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	return byID, nil
}

func (r *documentRepository) queryHits(ctx context.Context, query string, args []interface{}) ([]domain.StoreHit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var hits []domain.StoreHit
	for rows.Next() {
		var hit domain.StoreHit
		if err := scanDocument(rows, &hit.Doc, &hit.RawScore); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return hits, nil
}

func scanDocument(rows pgx.Rows, doc *domain.Document, score *float64) error {
	var lang string
	if err := rows.Scan(&doc.ID, &doc.Question, &doc.Answer, &doc.Text, &doc.URL, &lang, &doc.Tags, &doc.Source, score); err != nil {
		return err
	}
	doc.Language = domain.Language(lang)
	return nil
}

func scanDocuments(rows pgx.Rows) ([]domain.Document, error) {
	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var lang string
		if err := rows.Scan(&doc.ID, &doc.Question, &doc.Answer, &doc.Text, &doc.URL, &lang, &doc.Tags, &doc.Source); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Language = domain.Language(lang)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return docs, nil
}
