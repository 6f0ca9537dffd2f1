package parse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docparse-backend/internal/cache"
	"docparse-backend/internal/documents"
	"docparse-backend/internal/extract"
	"docparse-backend/internal/llm"
	"docparse-backend/internal/shared/metrics"
	"docparse-backend/internal/shared/telemetry"
	"docparse-backend/internal/usage"
)

const resultCacheTTL = 24 * time.Hour

// Enqueuer hands a document off for asynchronous parsing.
type Enqueuer interface {
	EnqueueParse(ctx context.Context, documentID, requestID string) error
}

// QuotaExceededError carries the usage snapshot so callers can report when
// the quota resets.
type QuotaExceededError struct {
	Usage usage.Usage
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily parse quota exceeded: %d/%d used", e.Usage.Used, e.Usage.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return usage.ErrLimitReached }

// Service runs the parse pipeline: extract, clean, classify, validate,
// persist, cache.
type Service struct {
	Repo          ResultsRepo
	Docs          *documents.Service
	Usage         *usage.Service
	Cache         cache.Cache
	Queue         Enqueuer
	LLM           llm.Client
	Model         string
	PromptVersion string
}

// Parse ingests an upload and runs the pipeline, synchronously by default.
// With async set, the document is stored and a queue task is emitted instead;
// the returned result is nil in that case.
func (s *Service) Parse(ctx context.Context, userID, plan, fileName string, declaredSize int64, r io.Reader, async bool) (documents.Document, *Result, error) {
	if userID == "" {
		return documents.Document{}, nil, documents.ErrInvalidInput
	}

	if s.Usage != nil {
		ok, u, err := s.Usage.CanConsume(ctx, userID, plan, 1)
		if err != nil {
			return documents.Document{}, nil, err
		}
		if !ok {
			return documents.Document{}, nil, &QuotaExceededError{Usage: u}
		}
	}

	doc, err := s.Docs.StoreUpload(ctx, userID, fileName, declaredSize, r)
	if err != nil {
		return documents.Document{}, nil, err
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, userID, plan, 1); err != nil {
			return documents.Document{}, nil, err
		}
	}

	if async {
		if s.Queue == nil {
			return documents.Document{}, nil, errors.New("queue not configured")
		}
		if err := s.Queue.EnqueueParse(ctx, doc.ID, requestIDFromContext(ctx)); err != nil {
			return documents.Document{}, nil, err
		}
		return doc, nil, nil
	}

	result, err := s.Process(ctx, doc)
	if err != nil {
		return doc, nil, err
	}
	// Re-read so the caller sees the completed status and preview.
	if fresh, getErr := s.Docs.Get(ctx, userID, doc.ID); getErr == nil {
		doc = fresh
	}
	return doc, &result, nil
}

// ProcessByID looks up a document and runs the pipeline on it. Queue-side entry point.
func (s *Service) ProcessByID(ctx context.Context, documentID string) error {
	doc, err := s.Docs.GetAny(ctx, documentID)
	if err != nil {
		return fmt.Errorf("document lookup id=%s: %w", documentID, err)
	}
	_, err = s.Process(ctx, doc)
	return err
}

// Process runs the parse pipeline for a stored document.
func (s *Service) Process(ctx context.Context, doc documents.Document) (Result, error) {
	startedAt := time.Now().UTC()
	metrics.IncParseStarted()

	if err := s.Docs.MarkProcessing(ctx, doc.ID); err != nil {
		return Result{}, s.failParse(ctx, doc, fmt.Errorf("set processing failed: %w", err), startedAt)
	}
	telemetry.Info("parse.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           doc.UserID,
		"document_id":       doc.ID,
		"status":            documents.StatusProcessing,
		"status_transition": "queued->processing",
	})

	if s.LLM == nil {
		return Result{}, s.failParse(ctx, doc, errors.New("missing llm client"), startedAt)
	}

	rawText, err := extract.ExtractText(ctx, s.Docs.Store, doc.FileKey, mimeForFileType(doc.FileType), doc.FileName)
	if err != nil {
		return Result{}, s.failParse(ctx, doc, fmt.Errorf("document %s type %s: %w", doc.ID, doc.FileType, err), startedAt)
	}

	text := extract.Clean(rawText)
	preview := extract.Preview(text)

	requestID := requestIDFromContext(ctx)
	llmClient := newRetryingLLM(s.LLM, doc.ID, requestID)
	input := llm.ExtractInput{
		Text:          text,
		FileName:      doc.FileName,
		PromptVersion: s.PromptVersion,
	}

	raw, err := llmClient.Extract(ctx, input)
	if err != nil {
		return Result{}, s.failParse(ctx, doc, fmt.Errorf("llm extract: %w", err), startedAt)
	}

	out, err := validateOutput(raw)
	if err != nil {
		rawRetry, retryErr := llmClient.Extract(llm.WithFixJSON(ctx, string(raw)), input)
		if retryErr != nil {
			return Result{}, s.failParse(ctx, doc, fmt.Errorf("llm extract retry: %w", retryErr), startedAt)
		}
		out, err = validateOutput(rawRetry)
		if err != nil {
			return Result{}, s.failParse(ctx, doc, err, startedAt)
		}
	}

	contacts, entities, features := ExtractSignals(text)

	result := Result{
		ID:            uuid.NewString(),
		DocumentID:    doc.ID,
		UserID:        doc.UserID,
		DocumentType:  out.DocumentType,
		Confidence:    out.Confidence,
		Fields:        out.Fields,
		Contacts:      contacts,
		Entities:      entities,
		Features:      features,
		Model:         s.Model,
		PromptVersion: s.PromptVersion,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.Repo.Upsert(ctx, result); err != nil {
		return Result{}, s.failParse(ctx, doc, fmt.Errorf("set parse result failed: %w", err), startedAt)
	}

	completedAt := time.Now().UTC()
	processingMs := durationMs(startedAt, completedAt)
	if err := s.Docs.MarkCompleted(ctx, doc.ID, out.DocumentType, int64(processingMs), preview); err != nil {
		return Result{}, s.failParse(ctx, doc, fmt.Errorf("set completed failed: %w", err), startedAt)
	}

	s.cacheResult(ctx, result)

	metrics.IncParseCompleted()
	metrics.ObserveParseDurationMs(processingMs)
	telemetry.Info("parse.status", map[string]any{
		"request_id":        requestID,
		"user_id":           doc.UserID,
		"document_id":       doc.ID,
		"status":            documents.StatusCompleted,
		"status_transition": "processing->completed",
		"document_type":     out.DocumentType,
		"duration_ms":       processingMs,
	})

	return result, nil
}

// ResultForDocument returns the parse result for a document, cache first.
// Returns nil when no result exists yet. Ownership is checked by the caller
// against the document row.
func (s *Service) ResultForDocument(ctx context.Context, userID, documentID string) (any, error) {
	if cached, ok := s.cachedResult(ctx, documentID); ok {
		if cached.UserID != userID {
			return nil, nil
		}
		return cached, nil
	}

	result, err := s.Repo.GetByDocument(ctx, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if result.UserID != userID {
		return nil, nil
	}
	s.cacheResult(ctx, result)
	return result, nil
}

// Get returns the typed parse result for a document, ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, documentID string) (Result, error) {
	return s.Repo.GetByDocument(ctx, documentID)
}

// DeleteResult removes the stored result and its cache entry for a document.
func (s *Service) DeleteResult(ctx context.Context, userID, documentID string) error {
	_ = userID
	if err := s.Repo.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, cacheKey(documentID)); err != nil {
			telemetry.Warn("parse.cache_delete_failed", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

func (s *Service) failParse(ctx context.Context, doc documents.Document, err error, startedAt time.Time) error {
	code, _ := classifyFailure(err)
	if updateErr := s.Docs.MarkFailed(context.Background(), doc.ID); updateErr != nil {
		telemetry.Error("parse.fail_update", map[string]any{
			"document_id": doc.ID,
			"error":       updateErr.Error(),
		})
	}
	completedAt := time.Now().UTC()
	metrics.IncParseFailed()
	metrics.ObserveParseDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("parse.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           doc.UserID,
		"document_id":       doc.ID,
		"status":            documents.StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             sanitizeError(err),
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	return err
}

func (s *Service) cacheResult(ctx context.Context, result Result) {
	if s.Cache == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, cacheKey(result.DocumentID), payload, resultCacheTTL); err != nil {
		telemetry.Warn("parse.cache_set_failed", map[string]any{
			"document_id": result.DocumentID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) cachedResult(ctx context.Context, documentID string) (Result, bool) {
	if s.Cache == nil {
		return Result{}, false
	}
	payload, err := s.Cache.Get(ctx, cacheKey(documentID))
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, false
	}
	return result, true
}

func cacheKey(documentID string) string {
	return "parse:" + documentID
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "openai request timeout") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "llm output invalid") || strings.Contains(msg, "output schema") {
		return ErrorCodeLLMInvalidOutput, false
	}
	if strings.Contains(msg, "unsupported mime type") || strings.Contains(msg, "not valid utf-8") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "document") || strings.Contains(msg, "storage") ||
		strings.Contains(msg, "parse result") || strings.Contains(msg, "set processing") ||
		strings.Contains(msg, "set completed") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func mimeForFileType(fileType string) string {
	switch strings.ToLower(fileType) {
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain"
	}
}
