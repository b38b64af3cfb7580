package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	DatabaseURL     string
	Env             string

	EmbeddingProvider   string
	EmbeddingURL        string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingBatchSize  int
	EmbedConcurrency    int

	LLMProvider   string
	ChatModel     string
	ChatMaxTokens int

	MatchThreshold float64
	MatchLimit     int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:     dbURL,
		Env:             env,

		EmbeddingProvider:   normalizeEmbeddingProvider(getEnv("EMBEDDING_PROVIDER", "gte")),
		EmbeddingURL:        getEnv("EMBEDDING_URL", "http://localhost:8081/embed"),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "gte-small"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 384),
		EmbeddingBatchSize:  getEnvInt("EMBEDDING_BATCH_SIZE", 10),
		EmbedConcurrency:    getEnvInt("EMBED_CONCURRENCY", 4),

		LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),
		ChatMaxTokens: getEnvInt("CHAT_MAX_TOKENS", 1024),

		MatchThreshold: getEnvFloat("MATCH_THRESHOLD", 0.8),
		MatchLimit:     getEnvInt("MATCH_LIMIT", 5),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: %s invalid float %q, using %g", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeEmbeddingProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "gte"
	}
}
