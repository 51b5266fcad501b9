package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/usecase"
	"ahv-copilot/internal/usecase/retrieval"
)

func newTestOrchestrator(store domain.DocumentStore) *retrieval.Orchestrator {
	return retrieval.NewOrchestrator(retrieval.Deps{Store: store, Logger: testLogger()}, retrieval.MatchingConfig{
		Exact:    retrieval.ExactParams{Enabled: true, Limit: 10},
		Deadline: 2 * time.Second,
	})
}

func collectTokens(ch <-chan usecase.Token) []usecase.Token {
	var tokens []usecase.Token
	for t := range ch {
		tokens = append(tokens, t)
	}
	return tokens
}

func payloads(tokens []usecase.Token, kind usecase.TokenKind) []string {
	var out []string
	for _, t := range tokens {
		if t.Kind == kind {
			out = append(out, t.Payload)
		}
	}
	return out
}

func TestStreamAnswersFromRetrievedDocuments(t *testing.T) {
	store := new(MockDocumentStore)
	store.On("ExactSearch", mock.Anything, mock.Anything, 10).
		Return([]domain.StoreHit{{Doc: domain.Document{
			ID: "d1", Question: "Wann wird die Rente ausbezahlt?",
			Text: "Die Rente wird monatlich ausbezahlt.",
			URL:  "https://www.eak.admin.ch/rente",
		}}}, nil).Once()

	llm := new(MockLLMClient)
	chunks, errs := chunkStream("Die Rente ", "wird monatlich ausbezahlt.")
	llm.On("CompleteStream", mock.Anything, mock.Anything, 2048).Return(chunks, errs, nil).Once()

	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, false, 0, testLogger())
	assert.NoError(t, err)

	tokens := collectTokens(uc.Stream(context.Background(), usecase.ChatInput{
		Query:    "Wann wird die Rente ausbezahlt?",
		Language: domain.LanguageGerman,
	}))

	statuses := payloads(tokens, usecase.TokenKindStatus)
	assert.Equal(t, []string{"Validierungsabfrage", "Suche nach relevanten Dokumenten"}, statuses)

	contents := payloads(tokens, usecase.TokenKindContent)
	assert.Equal(t, "Die Rente ", contents[0])
	assert.Equal(t, "wird monatlich ausbezahlt.", contents[1])
	assert.Contains(t, contents[2], "<a href='https://www.eak.admin.ch/rente'")
	assert.Contains(t, contents[2], "class='source-link'")

	controls := payloads(tokens, usecase.TokenKindControl)
	assert.Equal(t, []string{"<done>true</done>"}, controls)
	store.AssertExpectations(t)
	llm.AssertExpectations(t)
}

func TestStreamOffTopicShortCircuits(t *testing.T) {
	store := new(MockDocumentStore)
	llm := new(MockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, 8).Return("False", nil).Once()

	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, true, 0, testLogger())
	assert.NoError(t, err)

	tokens := collectTokens(uc.Stream(context.Background(), usecase.ChatInput{
		Query:    "Wie wird das Wetter morgen?",
		Language: domain.LanguageGerman,
	}))

	contents := payloads(tokens, usecase.TokenKindContent)
	assert.Equal(t, "Wie kann ich Ihnen bei Ihren Fragen zur AHV/IV helfen?", contents[0])
	assert.Contains(t, contents[1], "https://www.eak.admin.ch")

	controls := payloads(tokens, usecase.TokenKindControl)
	assert.Equal(t, []string{"<off_topic>true</off_topic>", "<done>true</done>"}, controls)

	// Retrieval and answer generation never ran.
	store.AssertNotCalled(t, "ExactSearch", mock.Anything, mock.Anything, mock.Anything)
	llm.AssertNotCalled(t, "CompleteStream", mock.Anything, mock.Anything, mock.Anything)
}

func TestStreamTopicCheckFailureAssumesOnTopic(t *testing.T) {
	store := new(MockDocumentStore)
	store.On("ExactSearch", mock.Anything, mock.Anything, 10).
		Return([]domain.StoreHit{{Doc: domain.Document{ID: "d1", Text: "Beitragspflicht"}}}, nil).Once()

	llm := new(MockLLMClient)
	llm.On("Complete", mock.Anything, mock.Anything, 8).
		Return("", errors.New("classifier unavailable")).Once()
	chunks, errs := chunkStream("Antwort.")
	llm.On("CompleteStream", mock.Anything, mock.Anything, 2048).Return(chunks, errs, nil).Once()

	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, true, 0, testLogger())
	assert.NoError(t, err)

	tokens := collectTokens(uc.Stream(context.Background(), usecase.ChatInput{
		Query:    "Wer ist beitragspflichtig?",
		Language: domain.LanguageGerman,
	}))

	controls := payloads(tokens, usecase.TokenKindControl)
	assert.Equal(t, []string{"<off_topic>false</off_topic>", "<done>true</done>"}, controls)
	assert.Contains(t, payloads(tokens, usecase.TokenKindContent), "Antwort.")
}

func TestStreamNoDocumentsOutcome(t *testing.T) {
	for _, lang := range []domain.Language{domain.LanguageGerman, domain.LanguageFrench, domain.LanguageItalian} {
		store := new(MockDocumentStore)
		store.On("ExactSearch", mock.Anything, mock.Anything, 10).
			Return([]domain.StoreHit{}, nil).Once()
		llm := new(MockLLMClient)

		uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, false, 0, testLogger())
		assert.NoError(t, err)

		tokens := collectTokens(uc.Stream(context.Background(), usecase.ChatInput{
			Query:    "etwas sehr Spezifisches",
			Language: lang,
		}))

		contents := payloads(tokens, usecase.TokenKindContent)
		assert.Equal(t, []string{usecase.NoDocumentsMessage(lang)}, contents, "language %s", lang)
		controls := payloads(tokens, usecase.TokenKindControl)
		assert.Equal(t, []string{"<done>true</done>"}, controls, "language %s", lang)
		llm.AssertNotCalled(t, "CompleteStream", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestStreamLLMErrorEmitsFailureMessage(t *testing.T) {
	store := new(MockDocumentStore)
	store.On("ExactSearch", mock.Anything, mock.Anything, 10).
		Return([]domain.StoreHit{{Doc: domain.Document{ID: "d1", Text: "Text"}}}, nil).Once()

	llm := new(MockLLMClient)
	chunks, errs := failingStream(errors.New("upstream 500"))
	llm.On("CompleteStream", mock.Anything, mock.Anything, 2048).Return(chunks, errs, nil).Once()

	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, false, 0, testLogger())
	assert.NoError(t, err)

	tokens := collectTokens(uc.Stream(context.Background(), usecase.ChatInput{
		Query:    "Frage",
		Language: domain.LanguageFrench,
	}))

	contents := payloads(tokens, usecase.TokenKindContent)
	assert.Contains(t, contents, "Désolé, une erreur s'est produite lors du traitement de votre demande. Veuillez réessayer.")
	controls := payloads(tokens, usecase.TokenKindControl)
	assert.Equal(t, []string{"<error>true</error>"}, controls)
}

func TestStreamEmptyQueryFails(t *testing.T) {
	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(new(MockDocumentStore)), new(MockLLMClient), false, 0, testLogger())
	assert.NoError(t, err)

	tokens := collectTokens(uc.Stream(context.Background(), usecase.ChatInput{
		Query:    "   ",
		Language: domain.LanguageGerman,
	}))

	controls := payloads(tokens, usecase.TokenKindControl)
	assert.Equal(t, []string{"<error>true</error>"}, controls)
}

func TestStreamStopsWhenContextCancelledMidStream(t *testing.T) {
	store := new(MockDocumentStore)
	store.On("ExactSearch", mock.Anything, mock.Anything, 10).
		Return([]domain.StoreHit{{Doc: domain.Document{ID: "d1", Text: "Text"}}}, nil).Once()

	// One chunk arrives, then the channels stay open as if the model were
	// still generating.
	chunks := make(chan domain.StreamChunk, 1)
	chunks <- domain.StreamChunk{Content: "Die Rente "}
	errs := make(chan error)
	llm := new(MockLLMClient)
	llm.On("CompleteStream", mock.Anything, mock.Anything, 2048).
		Return((<-chan domain.StreamChunk)(chunks), (<-chan error)(errs), nil).Once()

	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, false, 0, testLogger())
	assert.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tokens := uc.Stream(ctx, usecase.ChatInput{Query: "Frage", Language: domain.LanguageGerman})

	deadline := time.After(2 * time.Second)
	var got []usecase.Token
	for open := true; open; {
		select {
		case token, ok := <-tokens:
			if !ok {
				open = false
				break
			}
			got = append(got, token)
			if token.Kind == usecase.TokenKindContent {
				cancel()
			}
		case <-deadline:
			t.Fatal("token stream still open after cancellation")
		}
	}

	assert.Equal(t, []string{"Die Rente "}, payloads(got, usecase.TokenKindContent))
	// The stream ends without a terminal marker: no done, no error.
	assert.Empty(t, payloads(got, usecase.TokenKindControl))
	llm.AssertExpectations(t)
}

func TestStreamServesCachedAnswerOnRepeat(t *testing.T) {
	store := new(MockDocumentStore)
	store.On("ExactSearch", mock.Anything, mock.Anything, 10).
		Return([]domain.StoreHit{{Doc: domain.Document{ID: "d1", Text: "Text", URL: "https://example.ch"}}}, nil).Once()

	llm := new(MockLLMClient)
	chunks, errs := chunkStream("Antwort.")
	llm.On("CompleteStream", mock.Anything, mock.Anything, 2048).Return(chunks, errs, nil).Once()

	uc, err := usecase.NewChatStreamUsecase(newTestOrchestrator(store), llm, false, 0, testLogger())
	assert.NoError(t, err)

	input := usecase.ChatInput{Query: "Frage", Language: domain.LanguageGerman}
	first := collectTokens(uc.Stream(context.Background(), input))
	assert.Contains(t, payloads(first, usecase.TokenKindContent), "Antwort.")

	// Second run must come from the cache: the store and LLM expectations
	// above are Once() and would fail on a second call.
	second := collectTokens(uc.Stream(context.Background(), input))
	contents := payloads(second, usecase.TokenKindContent)
	assert.Equal(t, "Antwort.", contents[0])
	assert.Contains(t, contents[1], "https://example.ch")
	assert.Equal(t, []string{"<done>true</done>"}, payloads(second, usecase.TokenKindControl))

	store.AssertExpectations(t)
	llm.AssertExpectations(t)
}
