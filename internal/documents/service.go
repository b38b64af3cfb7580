package documents

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"healthmate-backend/internal/extract"
	"healthmate-backend/internal/sections"
	"healthmate-backend/internal/shared/storage/object"
)

// Ingestor runs the extract/chunk/embed pipeline for a stored document.
type Ingestor interface {
	Process(ctx context.Context, userId, documentID string) (int, error)
	EmbedPending(ctx context.Context, documentID string) (int, error)
}

// Service contains business logic for documents.
type Service struct {
	Store    object.ObjectStore
	Repo     DocumentsRepo
	Sections sections.SectionsRepo
	Ingest   Ingestor
}

// UploadResult reports what ingestion made of the upload.
type UploadResult struct {
	Document     Document
	SectionCount int
}

// Upload saves the file, records the document, and runs ingestion. The
// format check happens before anything is persisted so an unsupported file
// leaves no trace.
func (s *Service) Upload(ctx context.Context, userId, fileName string, r io.Reader) (UploadResult, error) {
	if fileName == "" {
		return UploadResult{}, ErrInvalidInput
	}
	if _, err := extract.FormatForFile(fileName); err != nil {
		return UploadResult{}, err
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userId, fileName, r)
	if err != nil {
		return UploadResult{}, err
	}

	doc := Document{
		ID:              uuid.NewString(),
		UserID:          userId,
		FileName:        fileName,
		MimeType:        mimeType,
		SizeBytes:       size,
		StorageKey:      storageKey,
		StorageProvider: s.Store.Provider(),
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return UploadResult{}, err
	}

	count, err := s.Ingest.Process(ctx, userId, doc.ID)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{Document: doc, SectionCount: count}, nil
}

// Get returns a document by ID for a user.
func (s *Service) Get(ctx context.Context, userId, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userId, documentID)
}

// List returns the user's documents, newest first.
func (s *Service) List(ctx context.Context, userId string, limit, offset int) ([]Document, error) {
	return s.Repo.ListByUser(ctx, userId, limit, offset)
}

// Sections returns a document's sections in insertion order after verifying
// ownership.
func (s *Service) ListSections(ctx context.Context, userId, documentID string) ([]sections.Section, error) {
	if _, err := s.Repo.GetByID(ctx, userId, documentID); err != nil {
		return nil, err
	}
	return s.Sections.ListByDocument(ctx, documentID)
}

// Embed re-runs the embedding pass over a document's pending sections and
// reports how many sections this call embedded and how many remain pending.
// Already-embedded sections are untouched, so calling this repeatedly (or
// concurrently with the worker) converges instead of duplicating work.
func (s *Service) Embed(ctx context.Context, userId, documentID string) (embedded, pending int, err error) {
	if _, err := s.Repo.GetByID(ctx, userId, documentID); err != nil {
		return 0, 0, err
	}
	embedded, err = s.Ingest.EmbedPending(ctx, documentID)
	if err != nil {
		return embedded, 0, err
	}
	pending, err = s.Sections.CountPendingByDocument(ctx, documentID)
	if err != nil {
		return embedded, 0, err
	}
	return embedded, pending, nil
}

// Delete removes a document, its sections, and the stored object.
func (s *Service) Delete(ctx context.Context, userId, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, userId, documentID)
	if err != nil {
		return err
	}

	// Sections first: Postgres cascades on document delete, but the memory
	// repos do not share state.
	if err := s.Sections.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userId, documentID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			return err
		}
	}
	return nil
}
