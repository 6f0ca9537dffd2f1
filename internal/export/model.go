package export

import (
	"time"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/parse"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Retention is how long export files stay downloadable.
const Retention = 7 * 24 * time.Hour

// MaxDocuments caps how many documents a single export may contain.
const MaxDocuments = 1000

// Export records a generated export file.
type Export struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Format        string    `json:"format"`
	FileName      string    `json:"fileName"`
	FileKey       string    `json:"-"`
	DocumentCount int       `json:"documentCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Row pairs a document with its parse result (nil when not parsed yet).
type Row struct {
	Document documents.Document
	Result   *parse.Result
}

// ValidFormat reports whether f is a supported export format.
func ValidFormat(f string) bool {
	switch f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return true
	}
	return false
}

func extensionFor(format string) string {
	return format
}

// ContentTypeFor returns the MIME type served for an export format.
func ContentTypeFor(format string) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
