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

// GTEClient calls a self-hosted sentence-embedding inference endpoint serving
// a gte-family model. Requests ask for mean pooling over token embeddings and
// L2 normalization, so returned vectors are unit length and deterministic for
// a fixed model version.
type GTEClient struct {
	url        string
	model      string
	dimensions int
	httpClient *http.Client
}

type gteRequest struct {
	Input     string `json:"input"`
	Model     string `json:"model,omitempty"`
	Pooling   string `json:"pooling"`
	Normalize bool   `json:"normalize"`
}

type gteResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// NewGTEClient constructs a client for the configured inference endpoint.
func NewGTEClient(cfg Config) (*GTEClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("EMBEDDING_URL is required for gte provider")
	}
	dims := cfg.Dimensions
	if dims <= 0 {
		dims = 384
	}
	return &GTEClient{
		url:        cfg.URL,
		model:      cfg.Model,
		dimensions: dims,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Embed returns the embedding vector for a single text.
func (c *GTEClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, &Error{Provider: "gte", Err: fmt.Errorf("cannot embed empty text")}
	}

	body, err := json.Marshal(gteRequest{
		Input:     text,
		Model:     c.model,
		Pooling:   "mean",
		Normalize: true,
	})
	if err != nil {
		return nil, &Error{Provider: "gte", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: "gte", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: "gte", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: "gte", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Provider: "gte", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))}
	}

	var parsed gteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &Error{Provider: "gte", Err: fmt.Errorf("parse response: %w", err)}
	}
	if parsed.Error != "" {
		return nil, &Error{Provider: "gte", Err: fmt.Errorf("%s", parsed.Error)}
	}
	if len(parsed.Embedding) != c.dimensions {
		return nil, &Error{Provider: "gte", Err: fmt.Errorf("expected %d dimensions, got %d", c.dimensions, len(parsed.Embedding))}
	}
	return parsed.Embedding, nil
}

// EmbedBatch embeds each text in order. The endpoint takes one input per
// call, so the batch is a sequential loop; concurrency is the caller's
// concern.
func (c *GTEClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

// Dimensions returns the configured vector dimensionality.
func (c *GTEClient) Dimensions() int {
	return c.dimensions
}

var _ Client = (*GTEClient)(nil)
