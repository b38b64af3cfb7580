package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const openaiEmbeddingsURL = "https://api.openai.com/v1/embeddings"

// OpenAIClient calls OpenAI's embedding API.
type OpenAIClient struct {
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
}

type openaiEmbeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient constructs an OpenAI embedding client.
func NewOpenAIClient(cfg Config) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 1536
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		model:      model,
		dimensions: dims,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Embed returns the embedding vector for a single text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, &Error{Provider: "openai", Err: fmt.Errorf("no embedding returned")}
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple texts in one API call.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(openaiEmbeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, &Error{Provider: "openai", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiEmbeddingsURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: "openai", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: "openai", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: "openai", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Provider: "openai", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))}
	}

	var parsed openaiEmbeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Provider: "openai", Err: fmt.Errorf("parse response: %w", err)}
	}
	if parsed.Error != nil {
		return nil, &Error{Provider: "openai", Err: fmt.Errorf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &Error{Provider: "openai", Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data))}
	}

	// OpenAI vectors are already unit length, but normalize anyway so the
	// matcher's inner-product assumption never depends on the provider.
	out := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, &Error{Provider: "openai", Err: fmt.Errorf("embedding index %d out of range", item.Index)}
		}
		out[item.Index] = Normalize(item.Embedding)
	}
	return out, nil
}

// Dimensions returns the model's vector dimensionality.
func (c *OpenAIClient) Dimensions() int {
	return c.dimensions
}

var _ Client = (*OpenAIClient)(nil)
