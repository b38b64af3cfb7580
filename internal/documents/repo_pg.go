package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    file_name,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	storageProvider := doc.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	var storageKey sql.NullString
	if doc.StorageKey != "" {
		storageKey = sql.NullString{String: doc.StorageKey, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		storageProvider,
		storageKey,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a document by ID for a user.
func (r *PGRepo) GetByID(ctx context.Context, userId, documentID string) (Document, error) {
	const query = `
SELECT id, user_id, file_name, mime_type, size_bytes, storage_provider, storage_key, created_at
FROM documents
WHERE user_id = $1 AND id = $2`

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userId, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// ListByUser returns documents for a user, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userId string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT id, user_id, file_name, mime_type, size_bytes, storage_provider, storage_key, created_at
FROM documents
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Delete removes a document. Sections cascade at the database level.
func (r *PGRepo) Delete(ctx context.Context, userId, documentID string) error {
	const query = `DELETE FROM documents WHERE user_id = $1 AND id = $2`

	res, err := r.DB.ExecContext(ctx, query, userId, documentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var mimeType sql.NullString
	var storageProvider sql.NullString
	var storageKey sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&mimeType,
		&doc.SizeBytes,
		&storageProvider,
		&storageKey,
		&doc.CreatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	doc.MimeType = mimeType.String
	doc.StorageProvider = storageProvider.String
	doc.StorageKey = storageKey.String
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
