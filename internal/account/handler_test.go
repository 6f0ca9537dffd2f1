package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"docparse-backend/internal/documents"
	"docparse-backend/internal/parse"
)

func newClaimRouter(docRepo *documents.MemoryRepo, resultRepo *parse.MemoryRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewService(docRepo, resultRepo))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Set("isGuest", false)
		c.Next()
	})
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)
	return router
}

func TestClaimGuestMigratesData(t *testing.T) {
	docRepo := documents.NewMemoryRepo()
	resultRepo := parse.NewMemoryRepo()
	router := newClaimRouter(docRepo, resultRepo)

	guestID := "11111111-1111-1111-1111-111111111111"
	guestUserID := "guest:" + guestID

	doc := documents.Document{
		ID:        "doc-1",
		UserID:    guestUserID,
		FileName:  "invoice.pdf",
		FileType:  "pdf",
		FileSize:  123,
		Status:    documents.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	result := parse.Result{
		ID:           "res-1",
		DocumentID:   doc.ID,
		UserID:       guestUserID,
		DocumentType: "invoice",
		Confidence:   0.9,
		CreatedAt:    time.Now().UTC(),
	}
	if err := resultRepo.Upsert(context.Background(), result); err != nil {
		t.Fatalf("create result: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	docs, err := docRepo.ListByUser(context.Background(), "user-1", 10, 0)
	if err != nil {
		t.Fatalf("list docs: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 migrated doc, got %d", len(docs))
	}

	migrated, err := resultRepo.GetByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if migrated.UserID != "user-1" {
		t.Fatalf("expected migrated result owner user-1, got %s", migrated.UserID)
	}
}

func TestClaimGuestIdempotentAndIsolated(t *testing.T) {
	docRepo := documents.NewMemoryRepo()
	resultRepo := parse.NewMemoryRepo()
	router := newClaimRouter(docRepo, resultRepo)

	guestID := "22222222-2222-2222-2222-222222222222"
	guestUserID := "guest:" + guestID

	doc := documents.Document{
		ID:        "doc-2",
		UserID:    guestUserID,
		FileName:  "receipt.txt",
		FileType:  "txt",
		FileSize:  123,
		Status:    documents.StatusCompleted,
		CreatedAt: time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create document: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/account/claim-guest", nil)
	req2.Header.Set("X-Guest-Id", guestID)
	resp2 := httptest.NewRecorder()
	router.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusOK {
		t.Fatalf("expected status 200 on idempotent call, got %d", resp2.Code)
	}

	docs, err := docRepo.ListByUser(context.Background(), "user-2", 10, 0)
	if err != nil {
		t.Fatalf("list docs: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no docs for other user, got %d", len(docs))
	}
}
