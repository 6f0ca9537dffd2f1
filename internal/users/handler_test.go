package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type brokenRepo struct {
	Repo
	err error
}

func (r brokenRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return User{}, ErrNotFound
}

func (r brokenRepo) Create(ctx context.Context, user User) error {
	return r.err
}

func newRegisterRouter(repo Repo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(NewService(repo))
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postRegister(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

const registerBody = `{"username":"ada","email":"ada@example.com","password":"correct-horse"}`

func TestRegisterRepoFailureIs500WithoutDriverText(t *testing.T) {
	router := newRegisterRouter(brokenRepo{err: errors.New("pq: connection refused")})

	resp := postRegister(t, router, registerBody)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "internal_error" {
		t.Fatalf("expected internal_error, got %s", payload.Error.Code)
	}
	if strings.Contains(payload.Error.Message, "connection refused") {
		t.Fatalf("driver text leaked to client: %s", payload.Error.Message)
	}
}

func TestRegisterRaceOnUniqueEmailIs409(t *testing.T) {
	// GetByEmail misses but Create hits the unique index, as happens when
	// two registers race.
	router := newRegisterRouter(brokenRepo{err: ErrEmailTaken})

	resp := postRegister(t, router, registerBody)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "email_taken") {
		t.Fatalf("expected email_taken code, got %s", resp.Body.String())
	}
}

func TestRegisterValidationErrorsStay400(t *testing.T) {
	router := newRegisterRouter(NewMemoryRepo())

	resp := postRegister(t, router, `{"username":"","email":"ada@example.com","password":"correct-horse"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "validation_error") {
		t.Fatalf("expected validation_error code, got %s", resp.Body.String())
	}
}
