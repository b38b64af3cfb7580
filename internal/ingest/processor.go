package ingest

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"healthmate-backend/internal/documents"
	"healthmate-backend/internal/embedding"
	"healthmate-backend/internal/extract"
	"healthmate-backend/internal/markdown"
	"healthmate-backend/internal/queue"
	"healthmate-backend/internal/sections"
	"healthmate-backend/internal/shared/metrics"
	"healthmate-backend/internal/shared/storage/object"
	"healthmate-backend/internal/shared/telemetry"
)

// Processor runs the document pipeline: extract text, normalize to
// markdown, split into sections, and generate embeddings.
type Processor struct {
	Store    object.ObjectStore
	Docs     documents.DocumentsRepo
	Sections sections.SectionsRepo
	Embedder embedding.Client

	// Queue, when set, defers the embedding pass to the worker instead of
	// running it inline.
	Queue queue.Client

	// Concurrency bounds parallel embedding calls. Zero means sequential.
	Concurrency int
}

// Process extracts, normalizes, and chunks a stored document, then embeds
// the sections (inline or via the queue). Returns the number of sections
// stored.
func (p *Processor) Process(ctx context.Context, userId, documentID string) (int, error) {
	start := time.Now()

	doc, err := p.Docs.GetByID(ctx, userId, documentID)
	if err != nil {
		return 0, err
	}

	rc, err := p.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		metrics.IncDocumentFailed()
		return 0, err
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		metrics.IncDocumentFailed()
		return 0, err
	}

	text, err := extract.Text(ctx, data, doc.FileName)
	if err != nil {
		metrics.IncDocumentFailed()
		return 0, err
	}

	normalized := markdown.Normalize(text)
	chunks := markdown.SplitSections(normalized)

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}

	inserted, err := p.Sections.InsertBatch(ctx, documentID, contents)
	if err != nil {
		metrics.IncDocumentFailed()
		return 0, err
	}

	telemetry.Info("ingest.sections_stored", map[string]any{
		"document_id":   documentID,
		"section_count": len(inserted),
	})

	if p.Queue != nil {
		msg := queue.Message{
			DocumentID: documentID,
			RequestID:  uuid.NewString(),
			EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
			Version:    1,
		}
		if err := p.Queue.Send(ctx, msg); err != nil {
			// The sections are stored; the embed endpoint or a later
			// worker run can pick them up.
			telemetry.Error("ingest.enqueue_failed", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	} else if _, err := p.EmbedPending(ctx, documentID); err != nil {
		metrics.IncDocumentFailed()
		return 0, err
	}

	metrics.IncDocumentProcessed()
	metrics.ObserveIngestDurationMs(float64(time.Since(start).Milliseconds()))
	return len(inserted), nil
}

// EmbedPending embeds every section of the document that has no embedding
// yet. Each section's write is conditional on the embedding still being
// null, so concurrent passes cannot overwrite each other; a section that
// loses the race is simply counted by the winner. Returns the number of
// sections this call embedded.
func (p *Processor) EmbedPending(ctx context.Context, documentID string) (int, error) {
	pending, err := p.Sections.ListPendingByDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	if p.Concurrency > 1 {
		g.SetLimit(p.Concurrency)
	} else {
		g.SetLimit(1)
	}

	var embedded int64
	for _, section := range pending {
		section := section
		g.Go(func() error {
			vec, err := p.Embedder.Embed(ctx, section.Content)
			if err != nil {
				metrics.IncEmbeddingFailed()
				return err
			}
			claimed, err := p.Sections.SetEmbedding(ctx, section.ID, vec)
			if err != nil {
				return err
			}
			if claimed {
				atomic.AddInt64(&embedded, 1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Partial progress is kept: embedded sections drop out of the
		// pending set, so a retry only redoes the failures.
		return int(atomic.LoadInt64(&embedded)), err
	}

	n := int(atomic.LoadInt64(&embedded))
	metrics.AddSectionsEmbedded(n)
	telemetry.Info("ingest.sections_embedded", map[string]any{
		"document_id":   documentID,
		"section_count": n,
	})
	return n, nil
}
