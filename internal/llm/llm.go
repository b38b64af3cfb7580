package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest captures the inputs for a streaming completion.
type ChatRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// Client abstracts chat-completion providers. StreamChat invokes onToken
// for each content delta in arrival order and returns once the stream ends.
type Client interface {
	StreamChat(ctx context.Context, req ChatRequest, onToken func(token string) error) error
}

// CompletionError indicates the completion call itself failed. Unlike a
// retrieval failure, which degrades to an answer without document context,
// a completion failure is terminal for the chat request.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// StreamChat returns ErrNotImplemented.
func (PlaceholderClient) StreamChat(ctx context.Context, req ChatRequest, onToken func(string) error) error {
	_ = ctx
	_ = req
	_ = onToken
	return ErrNotImplemented
}
