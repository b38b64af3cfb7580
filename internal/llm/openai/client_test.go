package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"healthmate-backend/internal/llm"
)

func newStreamServer(t *testing.T, lines []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			w.Write([]byte(line + "\n\n"))
		}
	}))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("OPENAI_BASE_URL", url)
	c, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestStreamChatForwardsTokensInOrder(t *testing.T) {
	srv := newStreamServer(t, []string{
		`data: {"choices":[{"delta":{"content":"Take "}}]}`,
		`data: {"choices":[{"delta":{"content":"your "}}]}`,
		`data: {"choices":[{"delta":{"content":"medication."}}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	var tokens []string
	err := c.StreamChat(context.Background(), llm.ChatRequest{
		Messages:  []llm.Message{{Role: "user", Content: "hi"}},
		MaxTokens: 1024,
	}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}

	got := strings.Join(tokens, "")
	if got != "Take your medication." {
		t.Errorf("unexpected assembled text %q", got)
	}
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d", len(tokens))
	}
}

func TestStreamChatSkipsEmptyDeltas(t *testing.T) {
	srv := newStreamServer(t, []string{
		`data: {"choices":[{"delta":{"role":"assistant"}}]}`,
		`data: {"choices":[{"delta":{"content":"hello"}}]}`,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	var tokens []string
	err := c.StreamChat(context.Background(), llm.ChatRequest{}, func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamChat: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "hello" {
		t.Errorf("unexpected tokens %v", tokens)
	}
}

func TestStreamChatNonOKStatusIsCompletionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	err := c.StreamChat(context.Background(), llm.ChatRequest{}, func(string) error { return nil })
	var compErr *llm.CompletionError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected CompletionError, got %v", err)
	}
	if compErr.Provider != "openai" {
		t.Errorf("unexpected provider %q", compErr.Provider)
	}
}

func TestStreamChatPropagatesOnTokenError(t *testing.T) {
	srv := newStreamServer(t, []string{
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		`data: [DONE]`,
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	sentinel := errors.New("client went away")
	err := c.StreamChat(context.Background(), llm.ChatRequest{}, func(string) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini"); err == nil {
		t.Error("expected error for missing api key")
	}
	if _, err := NewClient("key", ""); err == nil {
		t.Error("expected error for missing model")
	}
}
