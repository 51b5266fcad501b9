package usecase

import (
	"fmt"

	"ahv-copilot/internal/domain"
)

// StatusType identifies the processing phase a status token reports.
type StatusType string

const (
	StatusRetrieval    StatusType = "retrieval"
	StatusRouting      StatusType = "routing"
	StatusAgentHandoff StatusType = "agent_handoff"
	StatusTopicCheck   StatusType = "topic_check"
)

var statusMessages = map[StatusType]map[domain.Language]string{
	StatusRetrieval: {
		domain.LanguageGerman:  "Suche nach relevanten Dokumenten",
		domain.LanguageFrench:  "Recherche des documents pertinents",
		domain.LanguageItalian: "Ricerca di documenti rilevanti",
	},
	StatusRouting: {
		domain.LanguageGerman:  "Weiterleitung an den entsprechenden Dienst",
		domain.LanguageFrench:  "Routage vers le service approprié",
		domain.LanguageItalian: "Instradamento al servizio appropriato",
	},
	StatusAgentHandoff: {
		domain.LanguageGerman:  "%s bearbeitet Ihre Anfrage",
		domain.LanguageFrench:  "%s traite votre demande",
		domain.LanguageItalian: "%s sta elaborando la sua richiesta",
	},
	StatusTopicCheck: {
		domain.LanguageGerman:  "Validierungsabfrage",
		domain.LanguageFrench:  "Validation de la requête",
		domain.LanguageItalian: "Convalida della query",
	},
}

// StatusMessage returns the localized status text for a processing phase.
// Unknown languages fall back to German, the corpus default.
func StatusMessage(t StatusType, lang domain.Language) string {
	byLang, ok := statusMessages[t]
	if !ok {
		return string(t)
	}
	if msg, ok := byLang[lang]; ok {
		return msg
	}
	return byLang[domain.DefaultLanguage]
}

// HandoffStatusMessage formats the agent-handoff status with the agent's
// display name interpolated.
func HandoffStatusMessage(lang domain.Language, agentName string) string {
	return fmt.Sprintf(StatusMessage(StatusAgentHandoff, lang), agentName)
}

var offtopicMessages = map[domain.Language]string{
	domain.LanguageGerman:  "Wie kann ich Ihnen bei Ihren Fragen zur AHV/IV helfen?",
	domain.LanguageFrench:  "Comment puis-je vous aider à répondre à vos questions concernant l'AVS/AI ?",
	domain.LanguageItalian: "Come posso aiutarvi a rispondere alle vostre domande sull'AVS/AI?",
}

// OfftopicMessage is the fixed answer for queries outside the AHV/IV domain.
func OfftopicMessage(lang domain.Language) string {
	if msg, ok := offtopicMessages[lang]; ok {
		return msg
	}
	return offtopicMessages[domain.DefaultLanguage]
}

var noDocsMessages = map[domain.Language]string{
	domain.LanguageGerman:  "Keine Dokumente gefunden, die Ihrer Anfrage entsprechen.\n\nBitte aktualisieren oder setzen Sie die Dokumentenfilter (Tags, Quelle) und/oder Sprache zurück (einige Dokumente sind nur in einer Sprache verfügbar, meist deutsch).",
	domain.LanguageFrench:  "Aucun document trouvé correspondant à votre demande.\n\nVeuillez mettre à jour ou réinitialiser les filtres de documents (tags, source) et/ou la langue (certains documents ne sont disponibles que dans une seule langue, principalement en allemand).",
	domain.LanguageItalian: "Nessun documento trovato corrispondente alla tua richiesta.\n\nAggiorna o reimposta i filtri dei documenti (tag, fonte) e/o la lingua (alcuni documenti sono disponibili solo in una lingua, principalmente in tedesco).",
}

// NoDocumentsMessage is the user-facing feedback when retrieval finds
// nothing. It is a distinguished outcome, not an error.
func NoDocumentsMessage(lang domain.Language) string {
	if msg, ok := noDocsMessages[lang]; ok {
		return msg
	}
	return noDocsMessages[domain.DefaultLanguage]
}
