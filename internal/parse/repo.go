package parse

import "context"

// ResultsRepo defines persistence operations for parse results.
type ResultsRepo interface {
	// Upsert stores the result, replacing any previous result for the document.
	Upsert(ctx context.Context, result Result) error
	GetByDocument(ctx context.Context, documentID string) (Result, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
