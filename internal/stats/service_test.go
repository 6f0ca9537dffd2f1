package stats

import (
	"context"
	"testing"
	"time"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/usage"
)

func seedDoc(t *testing.T, repo *documents.MemoryRepo, id, docType string, createdAt time.Time) {
	t.Helper()
	err := repo.Create(context.Background(), documents.Document{
		ID:           id,
		UserID:       "u1",
		FileName:     id + ".txt",
		FileType:     "txt",
		Status:       documents.StatusCompleted,
		DocumentType: docType,
		CreatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func TestOverviewCountsAndQuota(t *testing.T) {
	docRepo := documents.NewMemoryRepo()
	usageSvc := usage.NewService()
	svc := NewService(docRepo, usageSvc)
	ctx := context.Background()

	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	seedDoc(t, docRepo, "doc-1", "invoice", base)
	seedDoc(t, docRepo, "doc-2", "invoice", base.Add(time.Hour))
	seedDoc(t, docRepo, "doc-3", "receipt", base.Add(2*time.Hour))

	if _, err := usageSvc.Consume(ctx, "u1", "free", 3); err != nil {
		t.Fatalf("consume usage: %v", err)
	}

	overview, err := svc.Overview(ctx, "u1", "free")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}

	if overview.TotalDocuments != 3 {
		t.Fatalf("expected 3 documents, got %d", overview.TotalDocuments)
	}
	if overview.ByType["invoice"] != 2 || overview.ByType["receipt"] != 1 {
		t.Fatalf("unexpected type counts: %+v", overview.ByType)
	}
	if overview.ParsesToday != 3 {
		t.Fatalf("expected 3 parses today, got %d", overview.ParsesToday)
	}
	wantLimit := usage.LimitFor("free")
	if overview.QuotaLimit != wantLimit || overview.QuotaRemaining != wantLimit-3 {
		t.Fatalf("unexpected quota: %+v", overview)
	}
	if overview.LastActivity == nil || !overview.LastActivity.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected last activity: %v", overview.LastActivity)
	}
}

func TestOverviewEmptyUser(t *testing.T) {
	svc := NewService(documents.NewMemoryRepo(), usage.NewService())

	overview, err := svc.Overview(context.Background(), "nobody", "free")
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.TotalDocuments != 0 || overview.ParsesToday != 0 {
		t.Fatalf("expected zeroed overview, got %+v", overview)
	}
	if overview.LastActivity != nil {
		t.Fatalf("expected nil last activity, got %v", overview.LastActivity)
	}
}
