package parse

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of ResultsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Result // documentID -> result
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Result),
	}
}

// Upsert stores the result, replacing any previous result for the document.
func (r *MemoryRepo) Upsert(ctx context.Context, result Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[result.DocumentID] = result
	return nil
}

// GetByDocument fetches the result for a document.
func (r *MemoryRepo) GetByDocument(ctx context.Context, documentID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.data[documentID]
	if !ok {
		return Result{}, ErrNotFound
	}
	return result, nil
}

// DeleteByDocument removes the result for a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}

// ClaimGuest reassigns all of a guest's results to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for documentID, result := range r.data {
		if result.UserID == guestUserID {
			result.UserID = authedUserID
			r.data[documentID] = result
			n++
		}
	}
	return n, nil
}

var _ ResultsRepo = (*MemoryRepo)(nil)
