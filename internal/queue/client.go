package queue

import (
	"context"
	"time"
)

// Client sends messages to a queue backend.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Receiver pulls raw message bodies off a queue backend. An empty body with
// a nil error means the wait timed out with nothing to process.
type Receiver interface {
	Receive(ctx context.Context, wait time.Duration) (string, error)
}
