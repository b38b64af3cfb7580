package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func gteServer(t *testing.T, handler func(r gteRequest) gteResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(handler(req))
	}))
}

func TestGTEEmbedRequestsMeanPooledNormalizedVectors(t *testing.T) {
	var seen gteRequest
	srv := gteServer(t, func(r gteRequest) gteResponse {
		seen = r
		return gteResponse{Embedding: []float32{1, 0, 0, 0}}
	})
	defer srv.Close()

	c, err := NewGTEClient(Config{Provider: "gte", URL: srv.URL, Dimensions: 4})
	if err != nil {
		t.Fatalf("NewGTEClient: %v", err)
	}

	vec, err := c.Embed(context.Background(), "blood pressure readings")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 4 {
		t.Fatalf("expected 4 dimensions, got %d", len(vec))
	}
	if seen.Input != "blood pressure readings" {
		t.Errorf("unexpected input %q", seen.Input)
	}
	if seen.Pooling != "mean" {
		t.Errorf("expected mean pooling, got %q", seen.Pooling)
	}
	if !seen.Normalize {
		t.Error("expected normalize=true")
	}
}

func TestGTEEmbedDeterministicForSameInput(t *testing.T) {
	srv := gteServer(t, func(r gteRequest) gteResponse {
		// Derive a fixed vector from the input so repeated calls match.
		var sum float32
		for _, ch := range r.Input {
			sum += float32(ch)
		}
		return gteResponse{Embedding: Normalize([]float32{sum, 1, 2})}
	})
	defer srv.Close()

	c, err := NewGTEClient(Config{URL: srv.URL, Dimensions: 3})
	if err != nil {
		t.Fatalf("NewGTEClient: %v", err)
	}

	a, err := c.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}
	b, err := c.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestGTEEmbedDimensionMismatch(t *testing.T) {
	srv := gteServer(t, func(r gteRequest) gteResponse {
		return gteResponse{Embedding: []float32{1, 2}}
	})
	defer srv.Close()

	c, err := NewGTEClient(Config{URL: srv.URL, Dimensions: 4})
	if err != nil {
		t.Fatalf("NewGTEClient: %v", err)
	}

	_, err = c.Embed(context.Background(), "text")
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if embErr.Provider != "gte" {
		t.Errorf("expected provider gte, got %q", embErr.Provider)
	}
}

func TestGTEEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewGTEClient(Config{URL: srv.URL, Dimensions: 4})
	if err != nil {
		t.Fatalf("NewGTEClient: %v", err)
	}

	_, err = c.Embed(context.Background(), "text")
	var embErr *Error
	if !errors.As(err, &embErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestGTEEmbedBatchPreservesOrder(t *testing.T) {
	srv := gteServer(t, func(r gteRequest) gteResponse {
		return gteResponse{Embedding: []float32{float32(len(r.Input))}}
	})
	defer srv.Close()

	c, err := NewGTEClient(Config{URL: srv.URL, Dimensions: 1})
	if err != nil {
		t.Fatalf("NewGTEClient: %v", err)
	}

	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	for i, want := range []float32{1, 2, 3} {
		if vecs[i][0] != want {
			t.Errorf("vector %d: expected %v, got %v", i, want, vecs[i][0])
		}
	}
}

func TestOpenAIEmbedBatchReordersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		// Respond out of order; the client must place by index.
		w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0,1]},
			{"index":0,"embedding":[1,0]}
		]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(Config{APIKey: "test-key", Dimensions: 2})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	// Point the client at the fake endpoint via a rewriting transport.
	c.httpClient = &http.Client{Transport: rewriteHost(srv)}

	vecs, err := c.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Fatalf("vectors not ordered by index: %v", vecs)
	}
}

func TestOpenAIClientRequiresAPIKey(t *testing.T) {
	if _, err := NewOpenAIClient(Config{}); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewClientUnsupportedProvider(t *testing.T) {
	if _, err := NewClient(Config{Provider: "word2vec"}); err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Similarity(tc.a, tc.b)
			if math.Abs(float64(got-tc.want)) > 1e-6 {
				t.Errorf("Similarity(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestNormalizeProducesUnitVector(t *testing.T) {
	v := Normalize([]float32{3, 4})
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("expected unit vector, squared norm = %v", sum)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("component %d changed: %v", i, x)
		}
	}
}

// rewriteHost redirects any request to the test server.
func rewriteHost(srv *httptest.Server) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r.URL.Scheme = "http"
		r.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(r)
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
