package usage

import "context"

type store interface {
	Get(ctx context.Context, userID, plan string) (Usage, error)
	EnsurePeriod(ctx context.Context, userID, plan string) (Usage, error)
	Consume(ctx context.Context, userID, plan string, n int) (Usage, error)
	Reset(ctx context.Context, userID, plan string) (Usage, error)
}

// Service manages daily quota data via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the current usage for a user, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, userID, plan string) (Usage, error) {
	return s.store.Get(ctx, userID, plan)
}

// EnsurePeriod resets usage if the daily window has expired.
func (s *Service) EnsurePeriod(ctx context.Context, userID, plan string) (Usage, error) {
	return s.store.EnsurePeriod(ctx, userID, plan)
}

// CanConsume reports whether the user can consume n units today.
func (s *Service) CanConsume(ctx context.Context, userID, plan string, n int) (bool, Usage, error) {
	u, err := s.store.EnsurePeriod(ctx, userID, plan)
	if err != nil {
		return false, Usage{}, err
	}
	if n <= 0 {
		return true, u, nil
	}
	if u.Used+n > u.Limit {
		return false, u, nil
	}
	return true, u, nil
}

// Consume increments usage by n if within the daily limit.
func (s *Service) Consume(ctx context.Context, userID, plan string, n int) (Usage, error) {
	return s.store.Consume(ctx, userID, plan, n)
}

// Reset sets usage to zero and restarts the daily window.
func (s *Service) Reset(ctx context.Context, userID, plan string) (Usage, error) {
	return s.store.Reset(ctx, userID, plan)
}
