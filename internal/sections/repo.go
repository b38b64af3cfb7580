package sections

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested section does not exist.
var ErrNotFound = errors.New("section not found")

// SectionsRepo defines persistence operations for document sections.
//
// SetEmbedding only writes when the section's embedding is still null and
// reports whether this call claimed the write. Concurrent embedding passes
// over the same document may both compute a vector for a section, but only
// one of them stores it; re-runs skip already-embedded rows via
// ListPendingByDocument.
type SectionsRepo interface {
	InsertBatch(ctx context.Context, documentID string, contents []string) ([]Section, error)
	ListByDocument(ctx context.Context, documentID string) ([]Section, error)
	ListPendingByDocument(ctx context.Context, documentID string) ([]Section, error)
	SetEmbedding(ctx context.Context, sectionID int64, embedding []float32) (bool, error)
	CountPendingByDocument(ctx context.Context, documentID string) (int, error)
	Match(ctx context.Context, query []float32, threshold float64, limit int) ([]Match, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
