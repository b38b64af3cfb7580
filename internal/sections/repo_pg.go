package sections

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"
)

// PGRepo implements SectionsRepo using Postgres with pgvector.
type PGRepo struct {
	DB *sql.DB
}

// InsertBatch inserts the sections of a document in order with null
// embeddings. The returned sections carry their assigned ids.
func (r *PGRepo) InsertBatch(ctx context.Context, documentID string, contents []string) ([]Section, error) {
	if len(contents) == 0 {
		return nil, nil
	}

	const query = `
INSERT INTO document_sections (document_id, content)
VALUES ($1, $2)
RETURNING id`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]Section, 0, len(contents))
	for _, content := range contents {
		var id int64
		if err := tx.QueryRowContext(ctx, query, documentID, content).Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, Section{ID: id, DocumentID: documentID, Content: content})
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDocument returns all sections of a document in insertion order.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Section, error) {
	const query = `
SELECT id, document_id, content, embedding::text
FROM document_sections
WHERE document_id = $1
ORDER BY id ASC`
	return r.querySections(ctx, query, documentID)
}

// ListPendingByDocument returns the sections still waiting for an embedding,
// in insertion order.
func (r *PGRepo) ListPendingByDocument(ctx context.Context, documentID string) ([]Section, error) {
	const query = `
SELECT id, document_id, content, embedding::text
FROM document_sections
WHERE document_id = $1 AND embedding IS NULL
ORDER BY id ASC`
	return r.querySections(ctx, query, documentID)
}

func (r *PGRepo) querySections(ctx context.Context, query, documentID string) ([]Section, error) {
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Section
	for rows.Next() {
		var s Section
		var raw sql.NullString
		if err := rows.Scan(&s.ID, &s.DocumentID, &s.Content, &raw); err != nil {
			return nil, err
		}
		if raw.Valid {
			var vec pgvector.Vector
			if err := vec.Scan(raw.String); err != nil {
				return nil, err
			}
			s.Embedding = vec.Slice()
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SetEmbedding stores the vector for a section if it is still unembedded.
// Returns false when another writer got there first.
func (r *PGRepo) SetEmbedding(ctx context.Context, sectionID int64, embedding []float32) (bool, error) {
	const query = `
UPDATE document_sections
SET embedding = $2
WHERE id = $1 AND embedding IS NULL`

	res, err := r.DB.ExecContext(ctx, query, sectionID, pgvector.NewVector(embedding))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountPendingByDocument counts sections without an embedding.
func (r *PGRepo) CountPendingByDocument(ctx context.Context, documentID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM document_sections
WHERE document_id = $1 AND embedding IS NULL`

	var n int
	if err := r.DB.QueryRowContext(ctx, query, documentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Match runs the similarity search over embedded sections. Ordering and the
// threshold cutoff live in the match_document_sections function so the index
// scan stays server-side.
func (r *PGRepo) Match(ctx context.Context, query []float32, threshold float64, limit int) ([]Match, error) {
	const q = `
SELECT id, document_id, content, similarity
FROM match_document_sections($1, $2, $3)`

	rows, err := r.DB.QueryContext(ctx, q, pgvector.NewVector(query), threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.SectionID, &m.DocumentID, &m.Content, &m.Similarity); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// DeleteByDocument removes all sections of a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM document_sections WHERE document_id = $1`
	_, err := r.DB.ExecContext(ctx, query, documentID)
	return err
}

var _ SectionsRepo = (*PGRepo)(nil)
