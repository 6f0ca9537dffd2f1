package usage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreDailyWindow(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	u, err := svc.EnsurePeriod(ctx, "u1", "free")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if u.Plan != "free" || u.Limit != 1000 || u.Used != 0 {
		t.Fatalf("unexpected defaults: %+v", u)
	}
	until := time.Until(u.ResetsAt)
	if until <= 23*time.Hour || until > 24*time.Hour {
		t.Fatalf("expected ~24h window, got %s", until)
	}
}

func TestConsumeEnforcesLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "u1", "free", 999); err != nil {
		t.Fatalf("consume within limit: %v", err)
	}
	if _, err := svc.Consume(ctx, "u1", "free", 1); err != nil {
		t.Fatalf("consume at limit: %v", err)
	}
	if _, err := svc.Consume(ctx, "u1", "free", 1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
}

func TestExpiredWindowResetsCounter(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.Consume(ctx, "u1", "free", 5); err != nil {
		t.Fatalf("consume: %v", err)
	}

	// Force the window into the past.
	ms := svc.store.(*memoryStore)
	ms.mu.Lock()
	u := ms.data["u1"]
	u.ResetsAt = time.Now().UTC().Add(-time.Minute)
	ms.data["u1"] = u
	ms.mu.Unlock()

	got, err := svc.EnsurePeriod(ctx, "u1", "free")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if got.Used != 0 {
		t.Fatalf("expected counter reset, got used=%d", got.Used)
	}
}

func TestPlanChangeUpdatesLimit(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	if _, err := svc.EnsurePeriod(ctx, "u1", "free"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	u, err := svc.EnsurePeriod(ctx, "u1", "pro")
	if err != nil {
		t.Fatalf("ensure pro: %v", err)
	}
	if u.Plan != "pro" || u.Limit != 5000 {
		t.Fatalf("expected pro/5000, got %s/%d", u.Plan, u.Limit)
	}
}

func TestCanConsumeDoesNotMutate(t *testing.T) {
	svc := NewService()
	ctx := context.Background()

	ok, u, err := svc.CanConsume(ctx, "u1", "free", 1)
	if err != nil || !ok {
		t.Fatalf("expected allowed, got ok=%v err=%v", ok, err)
	}
	if u.Used != 0 {
		t.Fatalf("CanConsume must not consume, used=%d", u.Used)
	}
}
