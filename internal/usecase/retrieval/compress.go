package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"ahv-copilot/internal/domain"
)

// irrelevantMarker is the sentinel the compression prompt instructs the LLM
// to emit for documents that do not help answer the query.
const irrelevantMarker = "<IRRELEVANT_CONTEXT>"

var compressionPrompts = map[domain.Language]string{
	domain.LanguageGerman: `Extrahieren Sie aus dem folgenden Dokument nur die Teile, die für die Beantwortung der Frage relevant sind. Ändern Sie den Wortlaut nicht.
Wenn nichts im Dokument relevant ist, antworten Sie ausschliesslich mit <IRRELEVANT_CONTEXT>.

Dokument:
%s

Frage: %s`,
	domain.LanguageFrench: `Extrayez du document suivant uniquement les passages pertinents pour répondre à la question. Ne reformulez pas le texte.
Si rien dans le document n'est pertinent, répondez exclusivement par <IRRELEVANT_CONTEXT>.

Document :
%s

Question : %s`,
	domain.LanguageItalian: `Estragga dal seguente documento solo le parti rilevanti per rispondere alla domanda. Non riformuli il testo.
Se nulla nel documento è rilevante, risponda esclusivamente con <IRRELEVANT_CONTEXT>.

Documento:
%s

Domanda: %s`,
}

const compressionMaxTokens = 512

// Compressor post-filters already retrieved documents down to the text
// relevant to the query. It operates on a merged result, it is not a ranking
// strategy itself.
type Compressor struct {
	LLM    domain.LLMClient
	Logger *slog.Logger
}

// Compress rewrites each document's text to its relevant subset and drops
// documents the LLM marks irrelevant. A failed compression keeps the
// original text: compression must only ever improve the context, never
// shrink availability.
func (c *Compressor) Compress(ctx context.Context, q domain.Query, merged domain.MergedResult) domain.MergedResult {
	tmpl, ok := compressionPrompts[q.Language]
	if !ok {
		tmpl = compressionPrompts[domain.DefaultLanguage]
	}

	compressed := make([]string, len(merged.Documents))
	dropped := make([]bool, len(merged.Documents))

	g, gctx := errgroup.WithContext(ctx)
	for i, ranked := range merged.Documents {
		g.Go(func() error {
			text, err := c.LLM.Complete(gctx, []domain.ChatMessage{
				{Role: domain.RoleSystem, Content: fmt.Sprintf(tmpl, ranked.Doc.Text, q.Text)},
			}, compressionMaxTokens)
			if err != nil {
				c.Logger.Warn("compression_failed_keeping_original",
					slog.String("doc_id", ranked.Doc.ID),
					slog.String("error", err.Error()))
				return nil
			}
			if strings.Contains(text, irrelevantMarker) {
				dropped[i] = true
				return nil
			}
			compressed[i] = strings.TrimSpace(text)
			return nil
		})
	}
	// Workers only report via the shared slices.
	_ = g.Wait()

	out := make([]domain.RankedDocument, 0, len(merged.Documents))
	for i, ranked := range merged.Documents {
		if dropped[i] {
			continue
		}
		if compressed[i] != "" {
			ranked.Doc.Text = compressed[i]
		}
		out = append(out, ranked)
	}
	return domain.MergedResult{Documents: out}
}
