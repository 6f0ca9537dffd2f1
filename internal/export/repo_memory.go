package export

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of ExportsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Export // exportID -> export
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Export)}
}

// Create inserts a new export row.
func (r *MemoryRepo) Create(ctx context.Context, exp Export) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[exp.ID] = exp
	return nil
}

// GetByID fetches an export scoped to its owner.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, exportID string) (Export, error) {
	if err := ctx.Err(); err != nil {
		return Export{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.data[exportID]
	if !ok || exp.UserID != userID {
		return Export{}, ErrNotFound
	}
	return exp, nil
}

// ListByUser returns the user's exports created at or after since, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, since time.Time) ([]Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Export{}
	for _, exp := range r.data {
		if exp.UserID == userID && !exp.CreatedAt.Before(since) {
			out = append(out, exp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ExpiredBefore returns exports created before the cutoff, across all users.
func (r *MemoryRepo) ExpiredBefore(ctx context.Context, cutoff time.Time) ([]Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Export{}
	for _, exp := range r.data {
		if exp.CreatedAt.Before(cutoff) {
			out = append(out, exp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes an export row.
func (r *MemoryRepo) Delete(ctx context.Context, exportID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, exportID)
	return nil
}

var _ ExportsRepo = (*MemoryRepo)(nil)
