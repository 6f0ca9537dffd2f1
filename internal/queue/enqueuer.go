package queue

import (
	"context"
	"time"
)

// Enqueuer adapts a Client to the signature the parse service expects.
type Enqueuer struct {
	Client Client
}

// EnqueueParse publishes a parse task for the given document.
func (e Enqueuer) EnqueueParse(ctx context.Context, documentID, requestID string) error {
	return e.Client.Send(ctx, Message{
		DocumentID: documentID,
		RequestID:  requestID,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	})
}
