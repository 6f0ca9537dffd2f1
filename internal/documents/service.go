package documents

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docparse-backend/internal/shared/storage/object"
	"docparse-backend/internal/shared/telemetry"
	"docparse-backend/internal/shared/util"
)

// MaxFileSize caps individual uploads at 16 MiB.
const MaxFileSize = 16 << 20

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore
	Repo  DocumentsRepo
}

// StoreUpload validates and saves an uploaded file, then records the
// document in queued status. declaredSize comes from the multipart header
// and is checked before any bytes are read.
func (s *Service) StoreUpload(ctx context.Context, userID, fileName string, declaredSize int64, r io.Reader) (Document, error) {
	name := sanitizeFileName(fileName)
	if name == "" {
		return Document{}, ErrInvalidInput
	}
	ext := util.FileExt(name)
	if !allowedExtensions[ext] {
		return Document{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if declaredSize > MaxFileSize {
		return Document{}, ErrTooLarge
	}

	fileKey, size, _, err := s.Store.Save(ctx, userID, name, r)
	if err != nil {
		return Document{}, err
	}

	now := time.Now().UTC()
	doc := Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  name,
		FileKey:   fileKey,
		FileType:  strings.TrimPrefix(ext, "."),
		FileSize:  size,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Get returns a document scoped to its owner.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// GetAny returns a document regardless of owner. Worker-side lookups only.
func (s *Service) GetAny(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.Get(ctx, documentID)
}

// List returns a page of the user's documents, newest first.
func (s *Service) List(ctx context.Context, userID string, page, pageSize int) ([]Document, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return s.Repo.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

// Search matches the user's documents by filename or preview substring.
func (s *Service) Search(ctx context.Context, userID, query, documentType string) ([]Document, error) {
	return s.Repo.Search(ctx, userID, query, documentType, 1000)
}

// Facets summarizes the user's corpus for search filter UIs: per-type
// counts plus the overall total.
type Facets struct {
	DocumentTypes map[string]int `json:"documentTypes"`
	Total         int            `json:"total"`
}

func (s *Service) Facets(ctx context.Context, userID string) (Facets, error) {
	byType, err := s.Repo.CountByType(ctx, userID)
	if err != nil {
		return Facets{}, err
	}
	total, err := s.Repo.CountByUser(ctx, userID)
	if err != nil {
		return Facets{}, err
	}
	if byType == nil {
		byType = map[string]int{}
	}
	return Facets{DocumentTypes: byType, Total: total}, nil
}

// OpenFile opens the stored object backing a document.
func (s *Service) OpenFile(ctx context.Context, doc Document) (io.ReadCloser, error) {
	return s.Store.Open(ctx, doc.FileKey)
}

// MarkProcessing moves the document into processing status.
func (s *Service) MarkProcessing(ctx context.Context, documentID string) error {
	return s.Repo.UpdateStatus(ctx, documentID, StatusProcessing)
}

// MarkFailed moves the document into failed status.
func (s *Service) MarkFailed(ctx context.Context, documentID string) error {
	return s.Repo.UpdateStatus(ctx, documentID, StatusFailed)
}

// MarkCompleted records the parse outcome and completes the document.
func (s *Service) MarkCompleted(ctx context.Context, documentID, documentType string, processingMs int64, textPreview string) error {
	return s.Repo.UpdateParsed(ctx, documentID, StatusCompleted, documentType, processingMs, textPreview)
}

// Delete removes the document row and its stored object. A failed object
// delete is logged but does not fail the request.
func (s *Service) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}
	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		return Document{}, err
	}
	if doc.FileKey != "" {
		if err := s.Store.Delete(ctx, doc.FileKey); err != nil {
			telemetry.Warn("documents.object_delete_failed", map[string]any{
				"documentId": documentID,
				"error":      err.Error(),
			})
		}
	}
	return doc, nil
}

// sanitizeFileName strips any path components from a client-supplied name.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
