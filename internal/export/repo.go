package export

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a missing or foreign export.
var ErrNotFound = errors.New("export not found")

// ExportsRepo defines persistence operations for export rows.
type ExportsRepo interface {
	Create(ctx context.Context, exp Export) error
	GetByID(ctx context.Context, userID, exportID string) (Export, error)
	// ListByUser returns the user's exports created at or after since, newest first.
	ListByUser(ctx context.Context, userID string, since time.Time) ([]Export, error)
	// ExpiredBefore returns exports created before the cutoff, across all users.
	ExpiredBefore(ctx context.Context, cutoff time.Time) ([]Export, error)
	Delete(ctx context.Context, exportID string) error
}
