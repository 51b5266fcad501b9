package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/usecase"
)

func TestStatusMessageLocalization(t *testing.T) {
	assert.Equal(t, "Suche nach relevanten Dokumenten",
		usecase.StatusMessage(usecase.StatusRetrieval, domain.LanguageGerman))
	assert.Equal(t, "Recherche des documents pertinents",
		usecase.StatusMessage(usecase.StatusRetrieval, domain.LanguageFrench))
	assert.Equal(t, "Ricerca di documenti rilevanti",
		usecase.StatusMessage(usecase.StatusRetrieval, domain.LanguageItalian))
	assert.Equal(t, "Validierungsabfrage",
		usecase.StatusMessage(usecase.StatusTopicCheck, domain.LanguageGerman))
}

func TestStatusMessageFallsBackToGerman(t *testing.T) {
	assert.Equal(t, "Suche nach relevanten Dokumenten",
		usecase.StatusMessage(usecase.StatusRetrieval, domain.Language("rm")))
}

func TestHandoffStatusMessageInterpolatesAgentName(t *testing.T) {
	assert.Equal(t, "PENSION_AGENT bearbeitet Ihre Anfrage",
		usecase.HandoffStatusMessage(domain.LanguageGerman, "PENSION_AGENT"))
	assert.Equal(t, "PENSION_AGENT traite votre demande",
		usecase.HandoffStatusMessage(domain.LanguageFrench, "PENSION_AGENT"))
}

func TestOfftopicMessageLocalization(t *testing.T) {
	assert.Equal(t, "Wie kann ich Ihnen bei Ihren Fragen zur AHV/IV helfen?",
		usecase.OfftopicMessage(domain.LanguageGerman))
	assert.Contains(t, usecase.OfftopicMessage(domain.LanguageFrench), "AVS/AI")
	// Unknown language falls back to German.
	assert.Equal(t, usecase.OfftopicMessage(domain.LanguageGerman),
		usecase.OfftopicMessage(domain.Language("en")))
}

func TestNoDocumentsMessageMentionsFilters(t *testing.T) {
	assert.Contains(t, usecase.NoDocumentsMessage(domain.LanguageGerman), "Keine Dokumente gefunden")
	assert.Contains(t, usecase.NoDocumentsMessage(domain.LanguageFrench), "Aucun document trouvé")
	assert.Contains(t, usecase.NoDocumentsMessage(domain.LanguageItalian), "Nessun documento trovato")
}
