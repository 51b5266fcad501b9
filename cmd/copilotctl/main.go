// copilotctl is the operator CLI: index FAQ documents, run retrieval
// queries and check suggestions against a running instance or the database
// directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/spf13/cobra"

	"ahv-copilot/internal/adapter/llm"
	"ahv-copilot/internal/infra"
	"ahv-copilot/internal/infra/config"
)

var (
	serverURL string
	language  string
)

func main() {
	root := &cobra.Command{
		Use:   "copilotctl",
		Short: "Operator tooling for the AHV/IV copilot",
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9020", "base URL of the copilot server")
	root.PersistentFlags().StringVar(&language, "language", "de", "query language (de, fr, it)")

	root.AddCommand(retrieveCmd(), autocompleteCmd(), pensionCmd(), indexCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func retrieveCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "retrieve [query]",
		Short: "Run the matching pipeline for a query and print the ranked documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"query":    args[0],
				"language": language,
				"limit":    limit,
			}
			return postJSON("/v1/retrieve", payload)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum documents to return")
	return cmd
}

func autocompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "autocomplete [question]",
		Short: "Print question suggestions for a partial input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := fmt.Sprintf("%s/v1/autocomplete?question=%s&language=%s",
				serverURL, url.QueryEscape(args[0]), language)
			resp, err := http.Get(u)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			return printResponse(resp)
		},
	}
}

func pensionCmd() *cobra.Command {
	var dob, retirement string
	var income float64
	cmd := &cobra.Command{
		Use:   "pension",
		Short: "Calculate the transitional-generation reduction rate or supplement",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"date_of_birth":         dob,
				"retirement_date":       retirement,
				"average_annual_income": income,
				"language":              language,
			}
			return postJSON("/v1/pension/early-retirement", payload)
		},
	}
	cmd.Flags().StringVar(&dob, "birth", "", "date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&retirement, "retirement", "", "planned retirement date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&income, "income", 0, "average annual income in CHF")
	_ = cmd.MarkFlagRequired("birth")
	_ = cmd.MarkFlagRequired("retirement")
	return cmd
}

// faqEntry is the JSON shape of one document in an index file.
type faqEntry struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Text     string   `json:"text"`
	URL      string   `json:"url"`
	Language string   `json:"language"`
	Tags     []string `json:"tags"`
	Source   string   `json:"source"`
}

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [file.json]",
		Short: "Embed and upsert FAQ documents from a JSON file into the database",
		Long: `Reads a JSON array of FAQ documents, embeds each question and upserts
the rows into faq_documents. Connects to the database and the embedding
API using the same environment variables as the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			var entries []faqEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}
			if len(entries) == 0 {
				return fmt.Errorf("input contains no documents")
			}

			cfg := config.Load()
			ctx := cmd.Context()
			pool, err := infra.NewPostgresDB(ctx, cfg.DSN()+"?sslmode=disable",
				infra.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer pool.Close()

			embedder := llm.NewEmbedder(&llm.EmbedderConfig{
				APIKey:     cfg.LLMAPIKey,
				BaseURL:    cfg.LLMBaseURL,
				Model:      cfg.EmbeddingModel,
				Dimensions: cfg.EmbeddingDims,
			})
			return indexEntries(ctx, pool, embedder, entries)
		},
	}
	return cmd
}

// indexEntries embeds questions in batches and upserts one row per entry.
func indexEntries(ctx context.Context, pool *pgxpool.Pool, embedder *llm.Embedder, entries []faqEntry) error {
	const batchSize = 64

	for start := 0; start < len(entries); start += batchSize {
		end := start + batchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		questions := make([]string, len(batch))
		for i, e := range batch {
			questions[i] = e.Question
		}
		embeddings, err := embedder.Embed(ctx, questions)
		if err != nil {
			return fmt.Errorf("embed batch starting at %d: %w", start, err)
		}

		for i, e := range batch {
			id := e.ID
			if id == "" {
				id = uuid.NewString()
			}
			lang := e.Language
			if lang == "" {
				lang = "de"
			}
			_, err := pool.Exec(ctx, `
				INSERT INTO faq_documents (id, question, answer, text, url, language, tags, source, question_embedding, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
				ON CONFLICT (id) DO UPDATE SET
					question = EXCLUDED.question,
					answer = EXCLUDED.answer,
					text = EXCLUDED.text,
					url = EXCLUDED.url,
					language = EXCLUDED.language,
					tags = EXCLUDED.tags,
					source = EXCLUDED.source,
					question_embedding = EXCLUDED.question_embedding,
					updated_at = now()
			`, id, e.Question, e.Answer, e.Text, e.URL, lang, e.Tags, e.Source, pgvector.NewVector(embeddings[i]))
			if err != nil {
				return fmt.Errorf("upsert document %s: %w", id, err)
			}
		}
		fmt.Printf("indexed %d/%d documents\n", end, len(entries))
	}
	return nil
}

func postJSON(path string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(serverURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
