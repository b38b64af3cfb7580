package workerproc

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	lastDoc string
	n       int
	err     error
}

func (s *stubEmbedder) EmbedPending(ctx context.Context, documentID string) (int, error) {
	s.lastDoc = documentID
	return s.n, s.err
}

func TestParseMessageRejectsEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestParseMessageRejectsMalformedJSON(t *testing.T) {
	_, meta, err := ParseMessage("{broken")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodyLen != len("{broken") {
		t.Errorf("unexpected body length %d", meta.BodyLen)
	}
	if meta.BodySHA == "" {
		t.Error("expected body hash for diagnostics")
	}
}

func TestParseMessageRequiresDocumentID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"r1","version":1}`)
	var missingErr ErrMissingDocumentID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingDocumentID, got %v", err)
	}
	if missingErr.RequestID != "r1" {
		t.Errorf("expected request id carried through, got %q", missingErr.RequestID)
	}
}

func TestHandleMessageRunsEmbeddingPass(t *testing.T) {
	emb := &stubEmbedder{n: 3}

	n, err := HandleMessage(context.Background(), emb, `{"documentId":"doc-9","requestId":"r2","version":1}`)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 embedded, got %d", n)
	}
	if emb.lastDoc != "doc-9" {
		t.Errorf("expected doc-9, got %q", emb.lastDoc)
	}
}

func TestHandleMessageWrapsProcessingFailure(t *testing.T) {
	emb := &stubEmbedder{err: errors.New("model down")}

	_, err := HandleMessage(context.Background(), emb, `{"documentId":"doc-9","requestId":"r2"}`)
	var procErr ErrProcess
	if !errors.As(err, &procErr) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if procErr.DocumentID != "doc-9" || procErr.RequestID != "r2" {
		t.Errorf("unexpected error context %+v", procErr)
	}
}
