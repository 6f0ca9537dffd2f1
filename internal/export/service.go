package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/parse"
	"docparse-backend/internal/shared/metrics"
	"docparse-backend/internal/shared/storage/object"
	"docparse-backend/internal/shared/telemetry"
	"docparse-backend/internal/shared/util"
)

// ErrInvalidFormat indicates an unsupported export format.
var ErrInvalidFormat = errors.New("invalid export format")

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// Service builds export files over a user's documents and parse results.
type Service struct {
	Repo    ExportsRepo
	Docs    documents.DocumentsRepo
	Results parse.ResultsRepo
	Store   object.ObjectStore
}

// CreateExport builds the file for the caller's (filtered) documents, stores
// it, and records an export row.
func (s *Service) CreateExport(ctx context.Context, userID, format, documentType string, from, to *time.Time) (Export, error) {
	if !ValidFormat(format) {
		return Export{}, fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}

	docs, err := s.Docs.Search(ctx, userID, "", documentType, MaxDocuments)
	if err != nil {
		return Export{}, fmt.Errorf("list documents: %w", err)
	}
	docs = filterByDate(docs, from, to)
	if len(docs) > MaxDocuments {
		docs = docs[:MaxDocuments]
	}

	rows := make([]Row, 0, len(docs))
	for _, doc := range docs {
		row := Row{Document: doc}
		result, err := s.Results.GetByDocument(ctx, doc.ID)
		if err != nil && !errors.Is(err, parse.ErrNotFound) {
			return Export{}, fmt.Errorf("load result for %s: %w", doc.ID, err)
		}
		if err == nil {
			row.Result = &result
		}
		rows = append(rows, row)
	}

	var data []byte
	switch format {
	case FormatCSV:
		data, err = BuildCSV(rows)
	case FormatJSON:
		data, err = BuildJSON(rows)
	case FormatXLSX:
		data, err = BuildXLSX(rows)
	}
	if err != nil {
		return Export{}, fmt.Errorf("build %s export: %w", format, err)
	}

	now := time.Now().UTC()
	fileName := fmt.Sprintf("export_%d.%s", now.Unix(), extensionFor(format))
	fileKey := util.HashUserKey(userID) + "/" + fileName

	saver, ok := s.Store.(keySaver)
	if !ok {
		return Export{}, errors.New("object store does not support SaveWithKey")
	}
	if _, err := saver.SaveWithKey(ctx, fileKey, ContentTypeFor(format), bytes.NewReader(data)); err != nil {
		return Export{}, fmt.Errorf("store export: %w", err)
	}

	exp := Export{
		ID:            uuid.NewString(),
		UserID:        userID,
		Format:        format,
		FileName:      fileName,
		FileKey:       fileKey,
		DocumentCount: len(rows),
		CreatedAt:     now,
	}
	if err := s.Repo.Create(ctx, exp); err != nil {
		return Export{}, err
	}

	metrics.IncExportCreated()
	telemetry.Info("export.created", map[string]any{
		"user_id":        userID,
		"export_id":      exp.ID,
		"format":         format,
		"document_count": exp.DocumentCount,
		"bytes":          len(data),
	})
	return exp, nil
}

// List returns the caller's exports still within the retention window.
func (s *Service) List(ctx context.Context, userID string) ([]Export, error) {
	since := time.Now().UTC().Add(-Retention)
	return s.Repo.ListByUser(ctx, userID, since)
}

// Download opens the stored file for an export the caller owns. Expired
// exports behave as missing.
func (s *Service) Download(ctx context.Context, userID, exportID string) (Export, io.ReadCloser, error) {
	exp, err := s.Repo.GetByID(ctx, userID, exportID)
	if err != nil {
		return Export{}, nil, err
	}
	if time.Since(exp.CreatedAt) > Retention {
		return Export{}, nil, ErrNotFound
	}
	body, err := s.Store.Open(ctx, exp.FileKey)
	if err != nil {
		return Export{}, nil, fmt.Errorf("open export file: %w", err)
	}
	return exp, body, nil
}

// CleanupExpired removes export rows and files past retention. Returns the
// number of exports removed.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-Retention)
	expired, err := s.Repo.ExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, exp := range expired {
		if err := s.Store.Delete(ctx, exp.FileKey); err != nil {
			telemetry.Warn("export.cleanup_object_failed", map[string]any{
				"export_id": exp.ID,
				"error":     err.Error(),
			})
		}
		if err := s.Repo.Delete(ctx, exp.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func filterByDate(docs []documents.Document, from, to *time.Time) []documents.Document {
	if from == nil && to == nil {
		return docs
	}
	var start, end time.Time
	if from != nil {
		start = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	}
	if to != nil {
		end = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	}

	out := docs[:0]
	for _, doc := range docs {
		created := doc.CreatedAt.UTC()
		if from != nil && created.Before(start) {
			continue
		}
		if to != nil && !created.Before(end) {
			continue
		}
		out = append(out, doc)
	}
	return out
}
