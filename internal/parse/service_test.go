package parse

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"docparse-backend/internal/cache"
	"docparse-backend/internal/documents"
	"docparse-backend/internal/llm"
	"docparse-backend/internal/shared/storage/object/local"
	"docparse-backend/internal/usage"
)

type stubLLM struct {
	raw json.RawMessage
	err error
}

func (s stubLLM) Extract(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return s.raw, s.err
}

func newTestService(t *testing.T, client llm.Client) *Service {
	t.Helper()
	docSvc := &documents.Service{
		Store: local.New(t.TempDir()),
		Repo:  documents.NewMemoryRepo(),
	}
	return &Service{
		Repo:          NewMemoryRepo(),
		Docs:          docSvc,
		Usage:         usage.NewService(),
		Cache:         cache.NewFileCache(t.TempDir()),
		LLM:           client,
		Model:         "gpt-4o-mini",
		PromptVersion: "gpt-4o-mini:v1",
	}
}

const validOutput = `{"document_type":"invoice","confidence":0.9,"fields":{"invoice_number":"INV-42","total_amount":"$99.00"}}`

func TestParseSyncCompletesDocument(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})
	ctx := context.Background()

	doc, result, err := svc.Parse(ctx, "u1", "free", "invoice.txt", 20,
		strings.NewReader("Invoice Number: INV-42 billing@acme.com $99.00"), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Status != documents.StatusCompleted {
		t.Fatalf("expected completed, got %s", doc.Status)
	}
	if doc.DocumentType != "invoice" {
		t.Fatalf("expected invoice, got %q", doc.DocumentType)
	}
	if result == nil || result.Fields["invoice_number"] != "INV-42" {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored, err := svc.Repo.GetByDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("stored result: %v", err)
	}
	if stored.DocumentType != "invoice" || stored.Confidence != 0.9 {
		t.Fatalf("unexpected stored result: %+v", stored)
	}

	u, err := svc.Usage.Get(ctx, "u1", "free")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 1 {
		t.Fatalf("expected 1 quota unit consumed, got %d", u.Used)
	}
}

func TestParseRunsRegexSupplements(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})

	_, result, err := svc.Parse(context.Background(), "u1", "free", "invoice.txt", 20,
		strings.NewReader("Contact billing@acme.com or +1 (555) 123-4567. Due 2024-03-15, total $99.00."), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	emails, _ := result.Contacts["emails"].([]string)
	if len(emails) != 1 || emails[0] != "billing@acme.com" {
		t.Fatalf("expected email supplement, got %v", result.Contacts["emails"])
	}
	if result.Features["email_count"] != 1 || result.Features["currency_count"] != 1 {
		t.Fatalf("unexpected features: %v", result.Features)
	}
}

func TestParseQuotaExceeded(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})
	ctx := context.Background()

	if _, err := svc.Usage.Consume(ctx, "u1", "free", usage.LimitFor("free")); err != nil {
		t.Fatalf("prefill quota: %v", err)
	}

	_, _, err := svc.Parse(ctx, "u1", "free", "invoice.txt", 20, strings.NewReader("x"), false)
	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaExceededError, got %v", err)
	}
	if !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached in chain, got %v", err)
	}

	n, err := svc.Docs.Repo.CountByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no documents stored past quota, got %d", n)
	}
}

func TestParseInvalidOutputFailsDocument(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(`{"document_type":"memo","confidence":2}`)})
	ctx := context.Background()

	doc, _, err := svc.Parse(ctx, "u1", "free", "memo.txt", 10, strings.NewReader("hello"), false)
	if err == nil {
		t.Fatalf("expected parse failure")
	}
	code, _ := classifyFailure(err)
	if code != ErrorCodeLLMInvalidOutput {
		t.Fatalf("expected %s, got %s (%v)", ErrorCodeLLMInvalidOutput, code, err)
	}

	stored, getErr := svc.Docs.GetAny(ctx, doc.ID)
	if getErr != nil {
		t.Fatalf("document lookup: %v", getErr)
	}
	if stored.Status != documents.StatusFailed {
		t.Fatalf("expected failed status, got %s", stored.Status)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})

	_, _, err := svc.Parse(context.Background(), "u1", "free", "photo.png", 10, strings.NewReader("x"), false)
	if !errors.Is(err, documents.ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestResultForDocumentCachesRepoHit(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})
	ctx := context.Background()

	doc, _, err := svc.Parse(ctx, "u1", "free", "invoice.txt", 20, strings.NewReader("Invoice"), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	got, err := svc.ResultForDocument(ctx, "u1", doc.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if got == nil {
		t.Fatalf("expected result, got nil")
	}

	// Cached entry serves after the repo row is gone.
	if err := svc.Repo.DeleteByDocument(ctx, doc.ID); err != nil {
		t.Fatalf("delete row: %v", err)
	}
	got, err = svc.ResultForDocument(ctx, "u1", doc.ID)
	if err != nil {
		t.Fatalf("cached result: %v", err)
	}
	if got == nil {
		t.Fatalf("expected cached result, got nil")
	}
}

func TestDeleteResultClearsCache(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})
	ctx := context.Background()

	doc, _, err := svc.Parse(ctx, "u1", "free", "invoice.txt", 20, strings.NewReader("Invoice"), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := svc.DeleteResult(ctx, "u1", doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := svc.ResultForDocument(ctx, "u1", doc.ID)
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil after delete, got %v", got)
	}
}

func TestAsyncParseEnqueues(t *testing.T) {
	svc := newTestService(t, stubLLM{raw: json.RawMessage(validOutput)})
	enqueued := make([]string, 0, 1)
	svc.Queue = enqueueFunc(func(ctx context.Context, documentID, requestID string) error {
		enqueued = append(enqueued, documentID)
		return nil
	})

	doc, result, err := svc.Parse(context.Background(), "u1", "free", "invoice.txt", 20, strings.NewReader("Invoice"), true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if result != nil {
		t.Fatalf("async parse must not return a result")
	}
	if doc.Status != documents.StatusQueued {
		t.Fatalf("expected queued, got %s", doc.Status)
	}
	if len(enqueued) != 1 || enqueued[0] != doc.ID {
		t.Fatalf("expected enqueued document, got %v", enqueued)
	}
}

type enqueueFunc func(ctx context.Context, documentID, requestID string) error

func (f enqueueFunc) EnqueueParse(ctx context.Context, documentID, requestID string) error {
	return f(ctx, documentID, requestID)
}
