package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.RWMutex
	data map[string]Usage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data: make(map[string]Usage),
	}
}

func (s *memoryStore) Get(ctx context.Context, userID, plan string) (Usage, error) {
	return s.ensure(ctx, userID, plan)
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID, plan string) (Usage, error) {
	return s.ensure(ctx, userID, plan)
}

func (s *memoryStore) ensure(ctx context.Context, userID, plan string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(plan)
	}
	if plan != "" && plan != u.Plan {
		u.Plan = plan
		u.Limit = LimitFor(plan)
	}
	if now.After(u.ResetsAt) || now.Equal(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(Window)
	}
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Consume(ctx context.Context, userID, plan string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, userID, plan)
	}
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u, ok := s.data[userID]
	if !ok {
		u = defaultUsage(plan)
	}
	if plan != "" && plan != u.Plan {
		u.Plan = plan
		u.Limit = LimitFor(plan)
	}
	if now.After(u.ResetsAt) || now.Equal(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(Window)
	}
	if u.Used+n > u.Limit {
		return Usage{}, ErrLimitReached
	}
	u.Used += n
	s.data[userID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID, plan string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := defaultUsage(plan)
	s.data[userID] = u
	return u, nil
}
