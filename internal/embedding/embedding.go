package embedding

import (
	"context"
	"fmt"
	"math"
)

// Client is the interface for embedding model clients.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Config selects and configures an embedding provider.
type Config struct {
	Provider   string
	URL        string
	Model      string
	APIKey     string
	Dimensions int
	BatchSize  int
}

// Error wraps a model invocation failure. Callers retry at batch granularity:
// sections that already received embeddings are excluded by the null-embedding
// selection predicate, so a retry only redoes the missing work.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewClient constructs the configured provider client.
func NewClient(cfg Config) (Client, error) {
	switch cfg.Provider {
	case "gte":
		return NewGTEClient(cfg)
	case "openai":
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// Similarity computes cosine similarity between two vectors.
func Similarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot float32
	var normA float32
	var normB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// Normalize scales the vector to unit length in place and returns it.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
