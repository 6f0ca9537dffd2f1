package documents

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Document // userId -> documents
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Document),
	}
}

// Create stores a document for a user.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if doc.Status == "" {
		doc.Status = StatusQueued
	}
	r.data[doc.UserID] = append(r.data[doc.UserID], doc)
	return nil
}

// GetByID returns a document by ID scoped to its owner.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := r.data[userID]
	for i := range docs {
		if docs[i].ID == documentID {
			return docs[i], nil
		}
	}
	return Document{}, ErrNotFound
}

// Get returns a document by ID regardless of owner.
func (r *MemoryRepo) Get(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, docs := range r.data {
		for i := range docs {
			if docs[i].ID == documentID {
				return docs[i], nil
			}
		}
	}
	return Document{}, ErrNotFound
}

// ListByUser returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	docs := r.snapshotSorted(userID)
	if offset >= len(docs) {
		return []Document{}, nil
	}

	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// Search matches documents by filename or preview substring, optionally
// filtered by document type.
func (r *MemoryRepo) Search(ctx context.Context, userID, query, documentType string, limit int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	q := strings.ToLower(query)
	out := []Document{}
	for _, doc := range r.snapshotSorted(userID) {
		if documentType != "" && doc.DocumentType != documentType {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(doc.FileName), q) &&
			!strings.Contains(strings.ToLower(doc.TextPreview), q) {
			continue
		}
		out = append(out, doc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepo) snapshotSorted(userID string) []Document {
	r.mu.RLock()
	userDocs := r.data[userID]
	docs := make([]Document, len(userDocs))
	copy(docs, userDocs)
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs
}

// UpdateStatus moves a document to a new lifecycle status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, docs := range r.data {
		for i := range docs {
			if docs[i].ID == documentID {
				docs[i].Status = status
				docs[i].UpdatedAt = time.Now().UTC()
				r.data[userID] = docs
				return nil
			}
		}
	}
	return ErrNotFound
}

// UpdateParsed records the outcome of a completed parse.
func (r *MemoryRepo) UpdateParsed(ctx context.Context, documentID, status, documentType string, processingMs int64, textPreview string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, docs := range r.data {
		for i := range docs {
			if docs[i].ID == documentID {
				docs[i].Status = status
				docs[i].DocumentType = documentType
				docs[i].ProcessingMs = processingMs
				docs[i].TextPreview = textPreview
				docs[i].UpdatedAt = time.Now().UTC()
				r.data[userID] = docs
				return nil
			}
		}
	}
	return ErrNotFound
}

// Delete removes a document row scoped to its owner.
func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[userID]
	for i := range docs {
		if docs[i].ID == documentID {
			r.data[userID] = append(docs[:i], docs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// CountByUser returns the number of documents owned by a user.
func (r *MemoryRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data[userID]), nil
}

// CountByType returns per-type document counts for a user.
func (r *MemoryRepo) CountByType(ctx context.Context, userID string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int)
	for _, doc := range r.data[userID] {
		if doc.DocumentType != "" {
			out[doc.DocumentType]++
		}
	}
	return out, nil
}

// CountAll returns the total number of documents.
func (r *MemoryRepo) CountAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, docs := range r.data {
		n += len(docs)
	}
	return n, nil
}

// LastActivity returns the most recent document creation time for a user.
func (r *MemoryRepo) LastActivity(ctx context.Context, userID string) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last *time.Time
	for _, doc := range r.data[userID] {
		if last == nil || doc.CreatedAt.After(*last) {
			ts := doc.CreatedAt
			last = &ts
		}
	}
	return last, nil
}

// ClaimGuest reassigns all of a guest's documents to an authenticated user.
func (r *MemoryRepo) ClaimGuest(ctx context.Context, guestUserID, authedUserID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	docs := r.data[guestUserID]
	if len(docs) == 0 {
		return 0, nil
	}
	for i := range docs {
		docs[i].UserID = authedUserID
	}
	r.data[authedUserID] = append(r.data[authedUserID], docs...)
	delete(r.data, guestUserID)
	return len(docs), nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
