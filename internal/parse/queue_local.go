package parse

import (
	"context"

	"docparse-backend/internal/shared/telemetry"
)

// InProcessQueue runs queued parses on a background goroutine. Used when no
// broker is configured, so async requests still make progress in dev.
type InProcessQueue struct {
	Svc *Service
}

// EnqueueParse schedules the document for background processing.
func (q *InProcessQueue) EnqueueParse(ctx context.Context, documentID, requestID string) error {
	_ = ctx
	go func() {
		bg := withRequestID(context.Background(), requestID)
		if err := q.Svc.ProcessByID(bg, documentID); err != nil {
			telemetry.Error("parse.background_failed", map[string]any{
				"request_id":  requestID,
				"document_id": documentID,
				"error":       sanitizeError(err),
			})
		}
	}()
	return nil
}

var _ Enqueuer = (*InProcessQueue)(nil)
