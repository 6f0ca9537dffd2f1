package export

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const selectExport = `
SELECT id, user_id, format, file_name, file_key, document_count, created_at
FROM exports`

// PGRepo implements ExportsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new export row.
func (r *PGRepo) Create(ctx context.Context, exp Export) error {
	const query = `
INSERT INTO exports (id, user_id, format, file_name, file_key, document_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		exp.ID, exp.UserID, exp.Format, exp.FileName, exp.FileKey, exp.DocumentCount, exp.CreatedAt)
	return err
}

// GetByID fetches an export scoped to its owner.
func (r *PGRepo) GetByID(ctx context.Context, userID, exportID string) (Export, error) {
	const query = selectExport + `
WHERE user_id = $1 AND id = $2
LIMIT 1`
	var exp Export
	err := r.DB.QueryRowContext(ctx, query, userID, exportID).Scan(
		&exp.ID, &exp.UserID, &exp.Format, &exp.FileName, &exp.FileKey, &exp.DocumentCount, &exp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Export{}, ErrNotFound
		}
		return Export{}, err
	}
	return exp, nil
}

// ListByUser returns the user's exports created at or after since, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, since time.Time) ([]Export, error) {
	const query = selectExport + `
WHERE user_id = $1 AND created_at >= $2
ORDER BY created_at DESC`
	return r.queryExports(ctx, query, userID, since)
}

// ExpiredBefore returns exports created before the cutoff, across all users.
func (r *PGRepo) ExpiredBefore(ctx context.Context, cutoff time.Time) ([]Export, error) {
	const query = selectExport + `
WHERE created_at < $1
ORDER BY created_at`
	return r.queryExports(ctx, query, cutoff)
}

// Delete removes an export row.
func (r *PGRepo) Delete(ctx context.Context, exportID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM exports WHERE id = $1`, exportID)
	return err
}

func (r *PGRepo) queryExports(ctx context.Context, query string, args ...any) ([]Export, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var exp Export
		if err := rows.Scan(&exp.ID, &exp.UserID, &exp.Format, &exp.FileName, &exp.FileKey, &exp.DocumentCount, &exp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

var _ ExportsRepo = (*PGRepo)(nil)
