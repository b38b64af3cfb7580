package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"healthmate-backend/internal/documents"
	"healthmate-backend/internal/extract"
	"healthmate-backend/internal/queue"
	"healthmate-backend/internal/sections"
	"healthmate-backend/internal/shared/storage/object/local"
)

// fakeEmbedder derives a deterministic vector from the text and counts
// invocations.
type fakeEmbedder struct {
	calls int64
	fail  atomic.Bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.fail.Load() {
		return nil, errors.New("model unavailable")
	}
	var sum float32
	for _, ch := range text {
		sum += float32(ch)
	}
	return []float32{sum, 1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

func newTestProcessor(t *testing.T) (*Processor, *documents.MemoryRepo, *sections.MemoryRepo, *fakeEmbedder) {
	t.Helper()
	docs := documents.NewMemoryRepo()
	secs := sections.NewMemoryRepo()
	emb := &fakeEmbedder{}
	proc := &Processor{
		Store:       local.New(t.TempDir()),
		Docs:        docs,
		Sections:    secs,
		Embedder:    emb,
		Concurrency: 4,
	}
	return proc, docs, secs, emb
}

func storeDocument(t *testing.T, proc *Processor, docs *documents.MemoryRepo, userId, fileName, content string) string {
	t.Helper()
	ctx := context.Background()

	key, size, mime, err := proc.Store.Save(ctx, userId, fileName, strings.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	doc := documents.Document{
		ID:         "doc-" + fileName,
		UserID:     userId,
		FileName:   fileName,
		MimeType:   mime,
		SizeBytes:  size,
		StorageKey: key,
		CreatedAt:  time.Now().UTC(),
	}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return doc.ID
}

func TestProcessStoresAndEmbedsSections(t *testing.T) {
	proc, docs, secs, _ := newTestProcessor(t)
	ctx := context.Background()

	md := "MEDICAL HISTORY\nHypertension diagnosed 2019.\n\nCURRENT MEDICATIONS\nLisinopril 10mg daily.\n"
	docID := storeDocument(t, proc, docs, "user-1", "history.md", md)

	count, err := proc.Process(ctx, "user-1", docID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 sections, got %d", count)
	}

	stored, err := secs.ListByDocument(ctx, docID)
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored sections, got %d", len(stored))
	}
	if !strings.HasPrefix(stored[0].Content, "## MEDICAL HISTORY") {
		t.Errorf("first section missing promoted heading: %q", stored[0].Content)
	}
	for i, s := range stored {
		if !s.Embedded() {
			t.Errorf("section %d not embedded", i)
		}
	}
}

func TestProcessRejectsUnsupportedExtensionBeforeParsing(t *testing.T) {
	proc, docs, secs, emb := newTestProcessor(t)
	ctx := context.Background()

	docID := storeDocument(t, proc, docs, "user-1", "notes.txt", "plain text")

	_, err := proc.Process(ctx, "user-1", docID)
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if stored, _ := secs.ListByDocument(ctx, docID); len(stored) != 0 {
		t.Errorf("expected no sections stored, got %d", len(stored))
	}
	if atomic.LoadInt64(&emb.calls) != 0 {
		t.Errorf("expected no embedding calls, got %d", emb.calls)
	}
}

func TestProcessWithQueueDefersEmbedding(t *testing.T) {
	proc, docs, secs, emb := newTestProcessor(t)
	ctx := context.Background()

	q := &captureQueue{}
	proc.Queue = q

	docID := storeDocument(t, proc, docs, "user-1", "plan.md", "## Plan\ncontent\n")

	count, err := proc.Process(ctx, "user-1", docID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 section, got %d", count)
	}
	if atomic.LoadInt64(&emb.calls) != 0 {
		t.Errorf("expected embedding deferred, got %d calls", emb.calls)
	}
	if len(q.sent) != 1 || q.sent[0].DocumentID != docID {
		t.Fatalf("expected one queue message for %s, got %+v", docID, q.sent)
	}

	pending, _ := secs.ListPendingByDocument(ctx, docID)
	if len(pending) != 1 {
		t.Errorf("expected 1 pending section, got %d", len(pending))
	}
}

func TestEmbedPendingSkipsEmbeddedSections(t *testing.T) {
	proc, docs, secs, emb := newTestProcessor(t)
	ctx := context.Background()

	docID := storeDocument(t, proc, docs, "user-1", "a.md", "## A\none\n\n## B\ntwo\n\n## C\nthree\n")
	proc.Queue = &captureQueue{}
	if _, err := proc.Process(ctx, "user-1", docID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored, _ := secs.ListByDocument(ctx, docID)
	if _, err := secs.SetEmbedding(ctx, stored[0].ID, []float32{1, 0, 0}); err != nil {
		t.Fatalf("SetEmbedding: %v", err)
	}

	n, err := proc.EmbedPending(ctx, docID)
	if err != nil {
		t.Fatalf("EmbedPending: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 newly embedded, got %d", n)
	}
	if got := atomic.LoadInt64(&emb.calls); got != 2 {
		t.Errorf("expected 2 model calls, got %d", got)
	}
}

func TestEmbedPendingConcurrentPassesEmbedEachSectionOnce(t *testing.T) {
	proc, docs, secs, _ := newTestProcessor(t)
	ctx := context.Background()

	md := "## One\na\n\n## Two\nb\n\n## Three\nc\n\n## Four\nd\n"
	docID := storeDocument(t, proc, docs, "user-1", "doc.md", md)
	proc.Queue = &captureQueue{}
	if _, err := proc.Process(ctx, "user-1", docID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	var wg sync.WaitGroup
	var total int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := proc.EmbedPending(ctx, docID)
			if err != nil {
				t.Errorf("EmbedPending: %v", err)
			}
			atomic.AddInt64(&total, int64(n))
		}()
	}
	wg.Wait()

	// Either pass may win any given section, but the claimed counts must
	// sum to the section count and every section ends embedded.
	if total != 4 {
		t.Errorf("expected 4 total claims, got %d", total)
	}
	pending, _ := secs.ListPendingByDocument(ctx, docID)
	if len(pending) != 0 {
		t.Errorf("expected no pending sections, got %d", len(pending))
	}
}

func TestEmbedPendingKeepsPartialProgressOnFailure(t *testing.T) {
	proc, docs, secs, emb := newTestProcessor(t)
	proc.Concurrency = 1
	ctx := context.Background()

	docID := storeDocument(t, proc, docs, "user-1", "doc.md", "## A\none\n\n## B\ntwo\n")
	proc.Queue = &captureQueue{}
	if _, err := proc.Process(ctx, "user-1", docID); err != nil {
		t.Fatalf("Process: %v", err)
	}

	emb.fail.Store(true)
	if _, err := proc.EmbedPending(ctx, docID); err == nil {
		t.Fatal("expected embedding failure")
	}

	emb.fail.Store(false)
	n, err := proc.EmbedPending(ctx, docID)
	if err != nil {
		t.Fatalf("retry EmbedPending: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected retry to embed 2 sections, got %d", n)
	}

	pending, _ := secs.ListPendingByDocument(ctx, docID)
	if len(pending) != 0 {
		t.Errorf("expected no pending sections after retry, got %d", len(pending))
	}
}

type captureQueue struct {
	mu   sync.Mutex
	sent []queue.Message
}

func (q *captureQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, msg)
	return nil
}
