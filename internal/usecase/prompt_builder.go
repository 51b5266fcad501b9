package usecase

import (
	"fmt"
	"strings"

	"ahv-copilot/internal/domain"
)

var ragSystemPrompts = map[domain.Language]string{
	domain.LanguageGerman: `Sie sind der EAK-Copilot, ein gewissenhafter und engagierter Assistent, der detaillierte und präzise Antworten auf Fragen des Publikums zu den Sozialversicherungen in der Schweiz gibt. Antworten Sie nur auf der Grundlage der bereitgestellten Kontextdokumente (KONTEXT). Verwenden Sie ALLE Informationen, die in den bereitgestellten Kontextdokumenten verfügbar sind, für Ihre Antwort. Wenn Sie Ihre Antwort nicht ausschliesslich auf die bereitgestellten Kontextdokumente stützen können, antworten Sie mit « Entschuldigung, ich kann diese Frage nicht beantworten ». Antworten Sie immer auf DEUTSCH.

KONTEXT:
%s

FRAGE: %s

ANTWORT: `,
	domain.LanguageFrench: `Vous êtes l'EAK-Copilot, un assistant consciencieux et engagé qui fournit des réponses détaillées et précises aux questions du public sur les assurances sociales en Suisse. Répondez uniquement sur la base des documents contextuels (CONTEXTE) fournis. Utilisez TOUTE l'information à disposition dans les documents contextuels fournis pour votre réponse. Si vous ne pouvez pas baser votre réponse uniquement sur les documents contextuels fournis, répondez « Désolé, je ne peux pas répondre à cette question ». Répondez toujours en FRANCAIS.

CONTEXTE :
%s

QUESTION : %s

REPONSE : `,
	domain.LanguageItalian: `Lei è l'EAK-Copilot, un assistente coscienzioso e impegnato che fornisce risposte dettagliate e precise alle domande del pubblico sulle assicurazioni sociali in Svizzera. Risponda solo sulla base dei documenti contestuali (CONTESTO) forniti. Utilizzi TUTTE le informazioni disponibili nei documenti contestuali forniti per la Sua risposta. Se non può basare la Sua risposta esclusivamente sui documenti contestuali forniti, risponda « Mi dispiace, non posso rispondere a questa domanda ». Risponda sempre in ITALIANO.

CONTESTO:
%s

DOMANDA: %s

RISPOSTA: `,
}

var topicCheckPrompts = map[domain.Language]string{
	domain.LanguageGerman: `# Aufgabe
Ihre Aufgabe ist es, zu beurteilen, ob die Frage zu den unten aufgeführten Themen gehört.

## Themen
- Sozialversicherungen
- Versicherung im Alter
- Versicherung gegen Invalidität
- Versicherung gegen Arbeitslosigkeit
- Familienzulagen
- AHV/IV/EO/ALV-Beiträge
- Leistungen der AHV/IV/EO/ALV
- Ergänzungsleistungen zur AHV/IV
- Ausgleichskasse
- Pensionierung
- Berufliche Vorsorge
- AHV/IV-Rente

## Antwortformat

Beantworten Sie die Frage mit True, wenn sie zu den oben genannten Themen gehört, ansonsten mit False.

## Frage
%s`,
	domain.LanguageFrench: `# Tâche
Votre tâche consiste à évaluer si la question fait partie des sujets ci-dessous.

## Sujets
- Assurances sociales
- Assurance vieillesse
- Assurance invalidité
- Assurance chômage
- Allocations familiales
- Cotisations AVS/AI/APG/AC
- Prestations AVS/AI/APG/AC
- Prestations complémentaires à l'AVS/AI
- Caisse de compensation
- Retraite
- Prévoyance professionnelle
- Rente AVS/AI

## Format de réponse

Répondez par True si la question fait partie des sujets ci-dessus, sinon répondez par False.

## Question
%s`,
	domain.LanguageItalian: `# Compito
Il vostro compito è quello di valutare se la domanda rientra in uno degli argomenti di seguito elencati.

## Soggetti
- Assicurazione sociale
- Assicurazione di vecchiaia
- Assicurazione di invalidità
- Assicurazione contro la disoccupazione
- Assegni familiari
- Contributi AVS/AI/APG/AC
- Prestazioni AVS/AI/APG/AC
- Prestazioni complementari AVS/AI
- Cassa di compensazione
- Pensioni
- Previdenza professionale
- Rendita AVS/AI

## Formato della risposta

Rispondere con True se la domanda è una delle precedenti, altrimenti rispondere con False.

## Domanda
%s`,
}

// MessageBuilder renders the chat messages sent to the LLM for each phase of
// a request. One builder per request, bound to the request language.
type MessageBuilder struct {
	Language domain.Language
}

// BuildChatPrompt renders the grounded answer prompt: system instructions
// with the retrieved documents inlined, the user query appended.
func (b *MessageBuilder) BuildChatPrompt(docs []domain.RankedDocument, query string) []domain.ChatMessage {
	tmpl, ok := ragSystemPrompts[b.Language]
	if !ok {
		tmpl = ragSystemPrompts[domain.DefaultLanguage]
	}

	var sb strings.Builder
	for i, ranked := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "DOC %d: %s", i+1, ranked.Doc.Text)
	}

	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(tmpl, sb.String(), query)},
	}
}

// BuildTopicCheckPrompt renders the on-topic classification prompt. The
// model answers True or False.
func (b *MessageBuilder) BuildTopicCheckPrompt(query string) []domain.ChatMessage {
	tmpl, ok := topicCheckPrompts[b.Language]
	if !ok {
		tmpl = topicCheckPrompts[domain.DefaultLanguage]
	}
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(tmpl, query)},
	}
}
