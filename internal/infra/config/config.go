package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ahv-copilot/internal/domain"
	"ahv-copilot/internal/usecase/retrieval"
)

type Config struct {
	Env  string
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int
	DBMinConns int

	// LogOTelEnabled switches the OpenTelemetry log bridge on. Off by
	// default: local runs have no collector to export to.
	LogOTelEnabled bool

	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	EmbeddingModel string
	EmbeddingDims  int

	AnswerMaxTokens int
	TopicCheck      bool

	AutocompleteLimit            int
	AutocompleteTrigramThreshold float64

	// RephraseRatePerSecond bounds how fast the rewriting strategies may
	// fire LLM calls across all requests.
	RephraseRatePerSecond float64
	RephraseBurst         int

	Matching retrieval.MatchingConfig
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),

		DBHost:     getEnv("DB_HOST", "copilot-db"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "copilot_user"),
		DBPassword: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "copilot_password"),
		DBName:     getEnv("DB_NAME", "copilot_db"),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns: getEnvInt("DB_MIN_CONNS", 2),

		LogOTelEnabled: getEnvBool("LOG_OTEL_ENABLED", false),

		LLMAPIKey:      getSecret("LLM_API_KEY", "LLM_API_KEY_FILE", ""),
		LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDims:  getEnvInt("EMBEDDING_DIMENSIONS", 0),

		AnswerMaxTokens: getEnvInt("CHAT_MAX_OUTPUT_TOKENS", 2048),
		TopicCheck:      getEnvBool("CHAT_TOPIC_CHECK", true),

		AutocompleteLimit:            getEnvInt("AUTOCOMPLETE_LIMIT", 10),
		AutocompleteTrigramThreshold: getEnvFloat("AUTOCOMPLETE_TRIGRAM_THRESHOLD", retrieval.DefaultTrigramScore),

		RephraseRatePerSecond: getEnvFloat("REPHRASE_RATE_PER_SECOND", 5),
		RephraseBurst:         getEnvInt("REPHRASE_BURST", 10),

		Matching: loadMatching(),
	}
}

// loadMatching reads the per-strategy tuning. Out-of-range values are
// clamped by Normalize downstream, never rejected.
func loadMatching() retrieval.MatchingConfig {
	cfg := retrieval.DefaultMatchingConfig()

	cfg.Exact.Enabled = getEnvBool("MATCH_EXACT_ENABLED", cfg.Exact.Enabled)
	cfg.Exact.Limit = getEnvInt("MATCH_EXACT_LIMIT", cfg.Exact.Limit)

	cfg.Fuzzy.Enabled = getEnvBool("MATCH_FUZZY_ENABLED", cfg.Fuzzy.Enabled)
	cfg.Fuzzy.Limit = getEnvInt("MATCH_FUZZY_LIMIT", cfg.Fuzzy.Limit)
	cfg.Fuzzy.Threshold = getEnvInt("MATCH_FUZZY_THRESHOLD", cfg.Fuzzy.Threshold)

	cfg.Trigram.Enabled = getEnvBool("MATCH_TRIGRAM_ENABLED", cfg.Trigram.Enabled)
	cfg.Trigram.Limit = getEnvInt("MATCH_TRIGRAM_LIMIT", cfg.Trigram.Limit)
	cfg.Trigram.Threshold = getEnvFloat("MATCH_TRIGRAM_THRESHOLD", cfg.Trigram.Threshold)

	cfg.Semantic.Enabled = getEnvBool("MATCH_SEMANTIC_ENABLED", cfg.Semantic.Enabled)
	cfg.Semantic.Limit = getEnvInt("MATCH_SEMANTIC_LIMIT", cfg.Semantic.Limit)
	cfg.Semantic.Metric = domain.VectorMetric(getEnv("MATCH_SEMANTIC_METRIC", string(cfg.Semantic.Metric)))

	cfg.BM25.Enabled = getEnvBool("MATCH_BM25_ENABLED", cfg.BM25.Enabled)
	cfg.BM25.Limit = getEnvInt("MATCH_BM25_LIMIT", cfg.BM25.Limit)
	cfg.BM25.K1 = getEnvFloat("MATCH_BM25_K1", cfg.BM25.K1)
	cfg.BM25.B = getEnvFloat("MATCH_BM25_B", cfg.BM25.B)

	cfg.Rewrite.Enabled = getEnvBool("MATCH_REWRITE_ENABLED", cfg.Rewrite.Enabled)
	cfg.Rewrite.Limit = getEnvInt("MATCH_REWRITE_LIMIT", cfg.Rewrite.Limit)
	cfg.Rewrite.Alternates = getEnvInt("MATCH_REWRITE_ALTERNATES", cfg.Rewrite.Alternates)

	cfg.Fusion.Enabled = getEnvBool("MATCH_FUSION_ENABLED", cfg.Fusion.Enabled)
	cfg.Fusion.Limit = getEnvInt("MATCH_FUSION_LIMIT", cfg.Fusion.Limit)
	cfg.Fusion.Alternates = getEnvInt("MATCH_FUSION_ALTERNATES", cfg.Fusion.Alternates)
	cfg.Fusion.RRFK = getEnvFloat("MATCH_FUSION_RRF_K", cfg.Fusion.RRFK)

	cfg.Compression.Enabled = getEnvBool("MATCH_COMPRESSION_ENABLED", cfg.Compression.Enabled)

	cfg.TopK.Enabled = getEnvBool("MATCH_TOPK_ENABLED", cfg.TopK.Enabled)
	cfg.TopK.Limit = getEnvInt("MATCH_TOPK_LIMIT", cfg.TopK.Limit)

	cfg.Deadline = getEnvDuration("MATCH_DEADLINE", cfg.Deadline)

	return cfg
}

// DSN renders the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
