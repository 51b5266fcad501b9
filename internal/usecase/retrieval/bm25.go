package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"ahv-copilot/internal/domain"
)

// BM25Retriever ranks the filtered corpus with classic BM25. It exists for
// text corpora without precomputed embeddings and runs fully in process.
type BM25Retriever struct {
	Store  domain.DocumentStore
	Params BM25Params
}

func (r *BM25Retriever) Strategy() domain.Strategy { return domain.StrategyBM25 }

func (r *BM25Retriever) Retrieve(ctx context.Context, q domain.Query) ([]domain.Candidate, error) {
	docs, err := r.Store.AllDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("bm25 corpus load: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	scored := ScoreBM25(q.Text, docs, r.Params.K1, r.Params.B)

	limit := r.Params.Limit
	if limit > len(scored) {
		limit = len(scored)
	}

	// Normalize onto [0,1] by the top score so BM25 results can be merged
	// with similarity-based strategies.
	maxScore := 0.0
	for _, s := range scored {
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}
	if maxScore == 0 {
		return nil, nil
	}

	candidates := make([]domain.Candidate, 0, limit)
	for i := 0; i < limit; i++ {
		if scored[i].Score <= 0 {
			break
		}
		candidates = append(candidates, domain.Candidate{
			Doc:      scored[i].Doc,
			Score:    scored[i].Score / maxScore,
			Strategy: domain.StrategyBM25,
			Rank:     len(candidates) + 1,
		})
	}
	return candidates, nil
}

// ScoredDocument pairs a document with its raw BM25 score.
type ScoredDocument struct {
	Doc   domain.Document
	Score float64
}

// ScoreBM25 computes BM25 scores for every document and returns them sorted
// by score descending, ID ascending on ties.
func ScoreBM25(query string, docs []domain.Document, k1, b float64) []ScoredDocument {
	terms := tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	tokenized := make([][]string, len(docs))
	totalLen := 0
	for i, doc := range docs {
		tokenized[i] = tokenize(doc.Text)
		totalLen += len(tokenized[i])
	}
	avgLen := float64(totalLen) / float64(len(docs))
	if avgLen == 0 {
		return nil
	}

	// Document frequency per query term.
	df := make(map[string]int, len(terms))
	for _, tokens := range tokenized {
		seen := make(map[string]bool)
		for _, tok := range tokens {
			seen[tok] = true
		}
		for _, term := range terms {
			if seen[term] {
				df[term]++
			}
		}
	}

	n := float64(len(docs))
	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		docLen := float64(len(tokenized[i]))
		freq := make(map[string]int)
		for _, tok := range tokenized[i] {
			freq[tok]++
		}
		score := 0.0
		for _, term := range terms {
			f := float64(freq[term])
			if f == 0 {
				continue
			}
			idf := math.Log((n-float64(df[term])+0.5)/(float64(df[term])+0.5) + 1)
			tf := f * (k1 + 1) / (f + k1*(1-b+b*docLen/avgLen))
			score += idf * tf
		}
		scored[i] = ScoredDocument{Doc: doc, Score: score}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Doc.ID < scored[j].Doc.ID
	})
	return scored
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
