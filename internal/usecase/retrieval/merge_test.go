package retrieval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/usecase/retrieval"
)

func doc(id string) domain.Document {
	return domain.Document{ID: id, Question: "Frage " + id, Answer: "Antwort " + id}
}

func TestMergeDeduplicatesKeepingMaxScore(t *testing.T) {
	lists := map[domain.Strategy][]domain.Candidate{
		domain.StrategyExact: {
			{Doc: doc("a"), Score: 1.0, Strategy: domain.StrategyExact, Rank: 1},
		},
		domain.StrategySemantic: {
			{Doc: doc("a"), Score: 0.8, Strategy: domain.StrategySemantic, Rank: 1},
			{Doc: doc("b"), Score: 0.6, Strategy: domain.StrategySemantic, Rank: 2},
		},
	}

	result := retrieval.Merge(lists, 10)

	assert.Len(t, result.Documents, 2)
	assert.Equal(t, "a", result.Documents[0].Doc.ID)
	assert.Equal(t, 1.0, result.Documents[0].Score)
	assert.Equal(t, []domain.Strategy{domain.StrategyExact, domain.StrategySemantic},
		result.Documents[0].Strategies)
	assert.Equal(t, "b", result.Documents[1].Doc.ID)
	assert.Equal(t, 0.6, result.Documents[1].Score)
}

func TestMergeConsensusWinsScoreTies(t *testing.T) {
	lists := map[domain.Strategy][]domain.Candidate{
		domain.StrategyFuzzy: {
			{Doc: doc("z"), Score: 0.5, Strategy: domain.StrategyFuzzy, Rank: 1},
			{Doc: doc("a"), Score: 0.5, Strategy: domain.StrategyFuzzy, Rank: 2},
		},
		domain.StrategyTrigram: {
			{Doc: doc("z"), Score: 0.5, Strategy: domain.StrategyTrigram, Rank: 1},
		},
	}

	result := retrieval.Merge(lists, 10)

	// "z" was contributed by two strategies, "a" by one; same score.
	assert.Equal(t, "z", result.Documents[0].Doc.ID)
	assert.Equal(t, "a", result.Documents[1].Doc.ID)
}

func TestMergeBreaksFullTiesByID(t *testing.T) {
	lists := map[domain.Strategy][]domain.Candidate{
		domain.StrategyExact: {
			{Doc: doc("b"), Score: 1.0, Strategy: domain.StrategyExact, Rank: 1},
			{Doc: doc("a"), Score: 1.0, Strategy: domain.StrategyExact, Rank: 2},
		},
	}

	result := retrieval.Merge(lists, 10)

	assert.Equal(t, "a", result.Documents[0].Doc.ID)
	assert.Equal(t, "b", result.Documents[1].Doc.ID)
}

func TestMergeTruncatesToLimit(t *testing.T) {
	lists := map[domain.Strategy][]domain.Candidate{
		domain.StrategySemantic: {
			{Doc: doc("a"), Score: 0.9, Strategy: domain.StrategySemantic, Rank: 1},
			{Doc: doc("b"), Score: 0.8, Strategy: domain.StrategySemantic, Rank: 2},
			{Doc: doc("c"), Score: 0.7, Strategy: domain.StrategySemantic, Rank: 3},
		},
	}

	result := retrieval.Merge(lists, 2)

	assert.Len(t, result.Documents, 2)
	assert.Equal(t, "a", result.Documents[0].Doc.ID)
	assert.Equal(t, "b", result.Documents[1].Doc.ID)
}

func TestMergeEmptyInput(t *testing.T) {
	result := retrieval.Merge(map[domain.Strategy][]domain.Candidate{}, 10)
	assert.True(t, result.Empty())
}
