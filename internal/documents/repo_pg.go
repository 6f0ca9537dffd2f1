package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const selectDocument = `
SELECT id, user_id, file_name, file_key, file_type, file_size, status, document_type, processing_ms, text_preview, created_at, updated_at
FROM documents`

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
    file_key,
    file_type,
    file_size,
    status,
    document_type,
    processing_ms,
    text_preview,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	status := doc.Status
	if status == "" {
		status = StatusQueued
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.FileKey,
		doc.FileType,
		doc.FileSize,
		status,
		doc.DocumentType,
		doc.ProcessingMs,
		doc.TextPreview,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// GetByID fetches a document by ID scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	const query = selectDocument + `
WHERE user_id = $1 AND id = $2
LIMIT 1`
	return r.getOne(ctx, query, userID, documentID)
}

// Get fetches a document by ID regardless of owner.
func (r *PGRepo) Get(ctx context.Context, documentID string) (Document, error) {
	const query = selectDocument + `
WHERE id = $1
LIMIT 1`
	return r.getOne(ctx, query, documentID)
}

func (r *PGRepo) getOne(ctx context.Context, query string, args ...any) (Document, error) {
	var doc Document
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.FileKey,
		&doc.FileType,
		&doc.FileSize,
		&doc.Status,
		&doc.DocumentType,
		&doc.ProcessingMs,
		&doc.TextPreview,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = selectDocument + `
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	return r.queryDocuments(ctx, query, userID, limit, offset)
}

// Search matches documents by filename or text preview substring, with an
// optional document type filter. Results are capped by limit.
func (r *PGRepo) Search(ctx context.Context, userID, query, documentType string, limit int) ([]Document, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	const q = selectDocument + `
WHERE user_id = $1
  AND ($2 = '' OR file_name ILIKE '%' || $2 || '%' OR text_preview ILIKE '%' || $2 || '%')
  AND ($3 = '' OR document_type = $3)
ORDER BY created_at DESC
LIMIT $4`
	return r.queryDocuments(ctx, q, userID, query, documentType, limit)
}

func (r *PGRepo) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(
			&doc.ID,
			&doc.UserID,
			&doc.FileName,
			&doc.FileKey,
			&doc.FileType,
			&doc.FileSize,
			&doc.Status,
			&doc.DocumentType,
			&doc.ProcessingMs,
			&doc.TextPreview,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateStatus moves a document to a new lifecycle status.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID, status string) error {
	const query = `
UPDATE documents
SET status = $1, updated_at = now()
WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, status, documentID)
	return err
}

// UpdateParsed records the outcome of a completed parse.
func (r *PGRepo) UpdateParsed(ctx context.Context, documentID, status, documentType string, processingMs int64, textPreview string) error {
	const query = `
UPDATE documents
SET status = $1, document_type = $2, processing_ms = $3, text_preview = $4, updated_at = now()
WHERE id = $5`
	_, err := r.DB.ExecContext(ctx, query, status, documentType, processingMs, textPreview, documentID)
	return err
}

// Delete removes a document row scoped to its owner.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) error {
	const query = `
DELETE FROM documents
WHERE user_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, userID, documentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByUser returns the number of documents owned by a user.
func (r *PGRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// CountByType returns per-type document counts for a user.
func (r *PGRepo) CountByType(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
SELECT document_type, COUNT(*)
FROM documents
WHERE user_id = $1 AND document_type <> ''
GROUP BY document_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var docType string
		var n int
		if err := rows.Scan(&docType, &n); err != nil {
			return nil, err
		}
		out[docType] = n
	}
	return out, rows.Err()
}

// CountAll returns the total number of documents.
func (r *PGRepo) CountAll(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// LastActivity returns the most recent document creation time for a user.
func (r *PGRepo) LastActivity(ctx context.Context, userID string) (*time.Time, error) {
	var ts sql.NullTime
	err := r.DB.QueryRowContext(ctx, `
SELECT MAX(created_at) FROM documents WHERE user_id = $1`, userID).Scan(&ts)
	if err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
