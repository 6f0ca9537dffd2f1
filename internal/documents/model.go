package documents

import "time"

// Document lifecycle statuses.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents an uploaded document owned by a user.
type Document struct {
	ID           string
	UserID       string
	FileName     string
	FileKey      string
	FileType     string
	FileSize     int64
	Status       string
	DocumentType string
	ProcessingMs int64
	TextPreview  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
