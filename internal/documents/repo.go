package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// Get fetches a document regardless of owner. Used by the worker,
	// which only carries a document id in the queue message.
	Get(ctx context.Context, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	Search(ctx context.Context, userID, query, documentType string, limit int) ([]Document, error)
	UpdateStatus(ctx context.Context, documentID, status string) error
	// UpdateParsed records the outcome of a completed parse.
	UpdateParsed(ctx context.Context, documentID, status, documentType string, processingMs int64, textPreview string) error
	Delete(ctx context.Context, userID, documentID string) error
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByType(ctx context.Context, userID string) (map[string]int, error)
	CountAll(ctx context.Context) (int, error)
	LastActivity(ctx context.Context, userID string) (*time.Time, error)
}
