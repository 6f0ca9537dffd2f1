package auth

import (
	"context"
	"errors"
	"testing"

	"docparse-backend/internal/users"
)

type failingUserRepo struct {
	users.Repo
	err error
}

func (r failingUserRepo) GetByID(ctx context.Context, userID string) (users.User, error) {
	return users.User{}, users.ErrNotFound
}

func (r failingUserRepo) Upsert(ctx context.Context, user users.User) error {
	return r.err
}

func TestEstablishUserCreatesLocalRow(t *testing.T) {
	repo := users.NewMemoryRepo()
	svc := NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/app", users.NewService(repo))

	plan, err := svc.establishUser(context.Background(), googleUserInfo{
		Sub:       "sub-1",
		Email:     "ada@example.com",
		Name:      "Ada Lovelace",
		GivenName: "Ada",
	})
	if err != nil {
		t.Fatalf("establish user: %v", err)
	}
	if plan != users.PlanFree {
		t.Fatalf("expected free plan for new user, got %s", plan)
	}

	got, err := repo.GetByID(context.Background(), "google:sub-1")
	if err != nil {
		t.Fatalf("expected user row for token subject, got %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestEstablishUserKeepsExistingPlan(t *testing.T) {
	repo := users.NewMemoryRepo()
	userSvc := users.NewService(repo)
	err := userSvc.UpsertFromAuth(context.Background(), users.User{
		ID:    "google:sub-2",
		Email: "pro@example.com",
		Plan:  users.PlanPro,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	svc := NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/app", userSvc)
	plan, err := svc.establishUser(context.Background(), googleUserInfo{Sub: "sub-2", Email: "pro@example.com"})
	if err != nil {
		t.Fatalf("establish user: %v", err)
	}
	if plan != users.PlanPro {
		t.Fatalf("expected existing pro plan preserved, got %s", plan)
	}
}

func TestEstablishUserSurfacesUpsertFailure(t *testing.T) {
	repoErr := errors.New("connection refused")
	svc := NewGoogleService("id", "secret", "http://localhost/cb", "http://localhost/app",
		users.NewService(failingUserRepo{err: repoErr}))

	if _, err := svc.establishUser(context.Background(), googleUserInfo{Sub: "sub-3", Email: "x@example.com"}); !errors.Is(err, repoErr) {
		t.Fatalf("expected upsert failure to surface, got %v", err)
	}
}
