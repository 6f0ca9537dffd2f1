package cache

import (
	"context"
	"errors"
	"time"

	"docparse-backend/internal/shared/metrics"
	"docparse-backend/internal/shared/telemetry"
)

// Fallback wraps a primary cache with a secondary one. When the primary is
// unreachable the operation is retried on the secondary so cache loss never
// breaks a request.
type Fallback struct {
	primary   Cache
	secondary Cache
}

// NewFallback builds a Fallback cache. Both stores must be non-nil.
func NewFallback(primary, secondary Cache) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := f.primary.Get(ctx, key)
	if err == nil {
		metrics.IncCacheHit()
		return val, nil
	}
	if errors.Is(err, ErrMiss) {
		metrics.IncCacheMiss()
		return nil, ErrMiss
	}

	f.logFallback("get", key, err)
	val, err = f.secondary.Get(ctx, key)
	if err == nil {
		metrics.IncCacheHit()
		return val, nil
	}
	if errors.Is(err, ErrMiss) {
		metrics.IncCacheMiss()
	}
	return nil, err
}

func (f *Fallback) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.primary.Set(ctx, key, value, ttl); err != nil {
		f.logFallback("set", key, err)
		return f.secondary.Set(ctx, key, value, ttl)
	}
	return nil
}

func (f *Fallback) Delete(ctx context.Context, key string) error {
	primaryErr := f.primary.Delete(ctx, key)
	secondaryErr := f.secondary.Delete(ctx, key)
	if primaryErr != nil {
		f.logFallback("delete", key, primaryErr)
		return secondaryErr
	}
	return secondaryErr
}

func (f *Fallback) Ping(ctx context.Context) error {
	if err := f.primary.Ping(ctx); err != nil {
		return err
	}
	return f.secondary.Ping(ctx)
}

func (f *Fallback) logFallback(op, key string, err error) {
	metrics.IncCacheFallback()
	telemetry.Warn("cache.fallback", map[string]any{
		"op":    op,
		"key":   key,
		"error": err.Error(),
	})
}

var _ Cache = (*Fallback)(nil)
