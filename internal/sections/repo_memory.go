package sections

import (
	"context"
	"sort"
	"sync"

	"healthmate-backend/internal/embedding"
)

// MemoryRepo is an in-memory implementation of SectionsRepo with brute-force
// cosine search. Used for tests and local runs without Postgres.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[string][]*Section // documentID -> sections, insertion order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		nextID: 1,
		data:   make(map[string][]*Section),
	}
}

// InsertBatch appends sections for a document with null embeddings.
func (r *MemoryRepo) InsertBatch(ctx context.Context, documentID string, contents []string) ([]Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Section, 0, len(contents))
	for _, content := range contents {
		s := &Section{ID: r.nextID, DocumentID: documentID, Content: content}
		r.nextID++
		r.data[documentID] = append(r.data[documentID], s)
		out = append(out, *s)
	}
	return out, nil
}

// ListByDocument returns all sections of a document in insertion order.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Section
	for _, s := range r.data[documentID] {
		out = append(out, *s)
	}
	return out, nil
}

// ListPendingByDocument returns sections without an embedding.
func (r *MemoryRepo) ListPendingByDocument(ctx context.Context, documentID string) ([]Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Section
	for _, s := range r.data[documentID] {
		if s.Embedding == nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// SetEmbedding stores a vector for the section if it is still unembedded.
func (r *MemoryRepo) SetEmbedding(ctx context.Context, sectionID int64, vec []float32) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, secs := range r.data {
		for _, s := range secs {
			if s.ID == sectionID {
				if s.Embedding != nil {
					return false, nil
				}
				s.Embedding = append([]float32(nil), vec...)
				return true, nil
			}
		}
	}
	return false, ErrNotFound
}

// CountPendingByDocument counts sections without an embedding.
func (r *MemoryRepo) CountPendingByDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.data[documentID] {
		if s.Embedding == nil {
			n++
		}
	}
	return n, nil
}

// Match scans every embedded section, keeping those at or above the
// threshold. Results order by similarity descending, ties by id ascending,
// matching the Postgres function.
func (r *MemoryRepo) Match(ctx context.Context, query []float32, threshold float64, limit int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Match
	for docID, secs := range r.data {
		for _, s := range secs {
			if s.Embedding == nil {
				continue
			}
			sim := float64(embedding.Similarity(query, s.Embedding))
			if sim < threshold {
				continue
			}
			out = append(out, Match{
				SectionID:  s.ID,
				DocumentID: docID,
				Content:    s.Content,
				Similarity: sim,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].SectionID < out[j].SectionID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteByDocument removes all sections of a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}

var _ SectionsRepo = (*MemoryRepo)(nil)
