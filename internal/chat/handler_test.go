package chat_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"healthmate-backend/internal/chat"
	"healthmate-backend/internal/healthdata"
	"healthmate-backend/internal/llm"
	"healthmate-backend/internal/sections"
	"healthmate-backend/internal/shared/config"
	"healthmate-backend/internal/shared/server"
)

type fixedEmbedder struct {
	err error
}

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0}, nil
}

func (f fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		vec, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (fixedEmbedder) Dimensions() int { return 2 }

type echoLLM struct {
	tokens []string
	err    error
	midErr error
	prompt string
}

func (e *echoLLM) StreamChat(ctx context.Context, req llm.ChatRequest, onToken func(string) error) error {
	if len(req.Messages) > 0 {
		e.prompt = req.Messages[0].Content
	}
	if e.err != nil {
		return e.err
	}
	for _, tok := range e.tokens {
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return e.midErr
}

func newChatRouter(t *testing.T, svc *chat.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return server.NewRouter(server.RouterDeps{
		Config:      config.Config{CORSAllowOrigin: []string{"http://localhost:3000"}},
		ChatHandler: chat.NewHandler(svc),
	})
}

func newChatService(model *echoLLM) (*chat.Service, *sections.MemoryRepo) {
	secs := sections.NewMemoryRepo()
	return &chat.Service{
		Embedder:       fixedEmbedder{},
		Sections:       secs,
		Health:         healthdata.NewMemoryRepo(),
		LLM:            model,
		MatchThreshold: 0.8,
		MatchLimit:     5,
		MaxTokens:      1024,
		Temperature:    0.2,
	}, secs
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestChatStreamsTokensWithResolvedContext(t *testing.T) {
	model := &echoLLM{tokens: []string{"Your ", "pressure ", "was 120/80."}}
	svc, secs := newChatService(model)
	router := newChatRouter(t, svc)

	inserted, err := secs.InsertBatch(context.Background(), "doc-1", []string{"## VITALS\nBP 120/80 in June."})
	if err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if _, err := secs.SetEmbedding(context.Background(), inserted[0].ID, []float32{1, 0}); err != nil {
		t.Fatalf("SetEmbedding: %v", err)
	}

	resp := postChat(t, router, `{"message":"what was my blood pressure?"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get(chat.ContextStateHeader); got != "resolved" {
		t.Errorf("expected resolved context, got %q", got)
	}
	if resp.Body.String() != "Your pressure was 120/80." {
		t.Errorf("unexpected body %q", resp.Body.String())
	}
	if !strings.Contains(model.prompt, "BP 120/80 in June.") {
		t.Error("matched section missing from system prompt")
	}
}

func TestChatDegradesWhenRetrievalFails(t *testing.T) {
	model := &echoLLM{tokens: []string{"I could not find documents."}}
	svc, _ := newChatService(model)
	svc.Embedder = fixedEmbedder{err: errors.New("model down")}
	router := newChatRouter(t, svc)

	resp := postChat(t, router, `{"message":"hello"}`)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := resp.Header().Get(chat.ContextStateHeader); got != "degraded" {
		t.Errorf("expected degraded context, got %q", got)
	}
	if !strings.Contains(model.prompt, chat.NoDocumentsMarker) {
		t.Error("expected no-documents marker in degraded prompt")
	}
	if resp.Body.String() != "I could not find documents." {
		t.Errorf("unexpected body %q", resp.Body.String())
	}
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	svc, _ := newChatService(&echoLLM{})
	router := newChatRouter(t, svc)

	resp := postChat(t, router, `{"message":"  "}`)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestChatCompletionFailureBeforeFirstTokenIs502(t *testing.T) {
	model := &echoLLM{err: &llm.CompletionError{Provider: "openai", Err: errors.New("upstream down")}}
	svc, _ := newChatService(model)
	router := newChatRouter(t, svc)

	resp := postChat(t, router, `{"message":"hello"}`)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
}

func TestChatCompletionFailureMidStreamAbortsConnection(t *testing.T) {
	model := &echoLLM{
		tokens: []string{"Your blood pressure "},
		midErr: &llm.CompletionError{Provider: "openai", Err: errors.New("stream cut")},
	}
	svc, _ := newChatService(model)
	router := newChatRouter(t, svc)

	srv := httptest.NewServer(router)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/chat", strings.NewReader(`{"message":"hello"}`))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test-guest")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	// The status line went out with the first token, so the failure has to
	// surface as a broken body rather than a clean end of stream.
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if _, readErr := io.ReadAll(resp.Body); readErr == nil {
		t.Fatal("expected read error on aborted stream, got clean end of body")
	}
}

func TestChatRequiresIdentity(t *testing.T) {
	svc, _ := newChatService(&echoLLM{})
	router := newChatRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestChatInlineUserDataReachesPrompt(t *testing.T) {
	model := &echoLLM{tokens: []string{"ok"}}
	svc, _ := newChatService(model)
	router := newChatRouter(t, svc)

	body := `{
		"message": "what do I take?",
		"userData": {
			"medications": [{"name": "Lisinopril", "dosage": "10mg", "frequency": "daily"}]
		}
	}`
	resp := postChat(t, router, body)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(model.prompt, "Lisinopril") {
		t.Error("inline medication missing from system prompt")
	}
}
