package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/infra/logger"
)

var intentPrompts = map[domain.Language]string{
	domain.LanguageGerman: `# Aufgabe
Ihre Aufgabe ist es, anhand der Frage den geeigneten Agenten auszuwählen.

## Agenten
- RAG_AGENT: Beantwortet allgemeine Fragen zur AHV, IV, EO, ALV, zu Ergänzungsleistungen, Familienzulagen, Beiträgen, Leistungen und Ansprüchen.
- PENSION_AGENT: Beantwortet nur spezifische mathematische Berechnungen für den Ruhestand, insbesondere die Berechnung des Kürzungssatzes und des Rentenzuschlags für Frauen der Übergangsgeneration (1961-1969).

## Antwortformat
Antworten Sie NUR mit dem Namen des Agenten: RAG_AGENT oder PENSION_AGENT.

## Frage
%s`,
	domain.LanguageFrench: `# Tâche
Votre tâche consiste à sélectionner l'agent approprié sur la base de la question.

## Agents
- RAG_AGENT : Répond aux questions générales sur l'AVS, l'AI, les APG, l'AC, les prestations complémentaires, les allocations familiales, les cotisations, les prestations et les droits.
- PENSION_AGENT : Répond uniquement aux calculs mathématiques spécifiques à la retraite, notamment le calcul du taux de réduction et du supplément de rente pour les femmes de la génération transitoire (1961-1969).

## Format de réponse
Répondez UNIQUEMENT par le nom de l'agent : RAG_AGENT ou PENSION_AGENT.

## Question
%s`,
	domain.LanguageItalian: `# Compito
Il suo compito è selezionare l'agente appropriato sulla base della domanda.

## Agenti
- RAG_AGENT: Risponde a domande generali su AVS, AI, IPG, AD, prestazioni complementari, assegni familiari, contributi, prestazioni e diritti.
- PENSION_AGENT: Risponde solo a calcoli matematici specifici per il pensionamento, in particolare il calcolo del tasso di riduzione e del supplemento di rendita per le donne della generazione di transizione (1961-1969).

## Formato della risposta
Risponda SOLO con il nome dell'agente: RAG_AGENT o PENSION_AGENT.

## Domanda
%s`,
}

var pensionExtractionPrompt = `Extract the following three values from the question. Answer with EXACTLY three lines in this format, nothing else:
date_of_birth: YYYY-MM-DD
retirement_date: YYYY-MM-DD
average_annual_income: NUMBER

If a value is missing from the question, write "unknown" for it.

Question: %s`

const (
	intentMaxTokens     = 16
	extractionMaxTokens = 64
)

// AgentRouter decides which agent answers a request and runs the handoff.
// The orchestrator agent owns intent detection; the pension agent answers
// deterministic calculations without touching the document store.
type AgentRouter struct {
	LLM    domain.LLMClient
	Logger *slog.Logger
}

// DetectIntent classifies the query and returns the agent handoff. The RAG
// agent is the fallback for unrecognized classifier output: a misrouted
// general answer beats a hard failure.
func (r *AgentRouter) DetectIntent(ctx context.Context, query string, lang domain.Language) (domain.Handoff, error) {
	tmpl, ok := intentPrompts[lang]
	if !ok {
		tmpl = intentPrompts[domain.DefaultLanguage]
	}
	resp, err := r.LLM.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(tmpl, query)},
	}, intentMaxTokens)
	if err != nil {
		return domain.Handoff{}, fmt.Errorf("intent detection: %w", err)
	}

	to := domain.AgentRAG
	if strings.Contains(strings.ToUpper(resp), "PENSION_AGENT") {
		to = domain.AgentPension
	}
	logger.Enrich(ctx, r.Logger).Info("agent_handoff",
		slog.String("query", query),
		slog.String("agent", string(to)))
	return domain.Handoff{From: domain.AgentOrchestrator, To: to, Intent: strings.TrimSpace(resp)}, nil
}

// RunPensionAgent extracts the calculation parameters from the query with
// one LLM call, then answers from the deterministic calculator.
func (r *AgentRouter) RunPensionAgent(ctx context.Context, query string, lang domain.Language) (string, error) {
	resp, err := r.LLM.Complete(ctx, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(pensionExtractionPrompt, query)},
	}, extractionMaxTokens)
	if err != nil {
		return "", fmt.Errorf("pension parameter extraction: %w", err)
	}

	input, err := parsePensionParams(resp)
	if err != nil {
		return "", err
	}
	result, err := CalculateEarlyRetirement(input)
	if err != nil {
		return "", err
	}
	return FormatEarlyRetirement(result, lang), nil
}

func parsePensionParams(resp string) (EarlyRetirementInput, error) {
	var input EarlyRetirementInput
	for _, line := range strings.Split(resp, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || value == "unknown" {
			continue
		}
		switch strings.TrimSpace(key) {
		case "date_of_birth":
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return input, fmt.Errorf("parse date of birth %q: %w", value, err)
			}
			input.DateOfBirth = t
		case "retirement_date":
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return input, fmt.Errorf("parse retirement date %q: %w", value, err)
			}
			input.RetirementDate = t
		case "average_annual_income":
			v, err := strconv.ParseFloat(strings.ReplaceAll(value, "'", ""), 64)
			if err != nil {
				return input, fmt.Errorf("parse income %q: %w", value, err)
			}
			input.AverageAnnualIncome = v
		}
	}
	if input.DateOfBirth.IsZero() || input.RetirementDate.IsZero() {
		return input, fmt.Errorf("question does not contain both dates needed for the calculation")
	}
	return input, nil
}
