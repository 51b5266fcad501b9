package usecase_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"ahv-copilot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockDocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) ExactSearch(ctx context.Context, q domain.Query, limit int) ([]domain.StoreHit, error) {
	args := m.Called(ctx, q, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoreHit), args.Error(1)
}

func (m *MockDocumentStore) FuzzySearch(ctx context.Context, q domain.Query, maxDistance, limit int) ([]domain.StoreHit, error) {
	args := m.Called(ctx, q, maxDistance, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoreHit), args.Error(1)
}

func (m *MockDocumentStore) TrigramSearch(ctx context.Context, q domain.Query, threshold float64, limit int) ([]domain.StoreHit, error) {
	args := m.Called(ctx, q, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoreHit), args.Error(1)
}

func (m *MockDocumentStore) SemanticSearch(ctx context.Context, text string, q domain.Query, metric domain.VectorMetric, limit int) ([]domain.StoreHit, error) {
	args := m.Called(ctx, text, q, metric, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoreHit), args.Error(1)
}

func (m *MockDocumentStore) AllDocuments(ctx context.Context, q domain.Query) ([]domain.Document, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockDocumentStore) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Document), args.Error(1)
}

// MockLLMClient
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Complete(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (string, error) {
	args := m.Called(ctx, messages, maxTokens)
	return args.String(0), args.Error(1)
}

func (m *MockLLMClient) CompleteStream(ctx context.Context, messages []domain.ChatMessage, maxTokens int) (<-chan domain.StreamChunk, <-chan error, error) {
	args := m.Called(ctx, messages, maxTokens)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(<-chan domain.StreamChunk), args.Get(1).(<-chan error), args.Error(2)
}

// chunkStream builds closed chunk/error channel pairs for CompleteStream
// expectations.
func chunkStream(contents ...string) (<-chan domain.StreamChunk, <-chan error) {
	chunks := make(chan domain.StreamChunk, len(contents)+1)
	for _, c := range contents {
		chunks <- domain.StreamChunk{Content: c}
	}
	chunks <- domain.StreamChunk{Done: true}
	close(chunks)
	errs := make(chan error, 1)
	close(errs)
	return chunks, errs
}

func failingStream(err error) (<-chan domain.StreamChunk, <-chan error) {
	chunks := make(chan domain.StreamChunk)
	close(chunks)
	errs := make(chan error, 1)
	errs <- err
	close(errs)
	return chunks, errs
}
