package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docparse-backend/internal/shared/util"
)

// FileCache implements Cache on the local filesystem. Each entry is a JSON
// envelope holding the payload and its expiry. The payload is base64-encoded
// so arbitrary bytes survive the envelope.
type FileCache struct {
	baseDir string
}

type fileEntry struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     string    `json:"value"`
}

// NewFileCache creates a filesystem cache rooted at baseDir.
func NewFileCache(baseDir string) *FileCache {
	return &FileCache{baseDir: baseDir}
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.baseDir, util.HashUserKey(key)+".json")
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(c.path(key))
	if os.IsNotExist(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var entry fileEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry, treat as a miss and clear it.
		_ = os.Remove(c.path(key))
		return nil, ErrMiss
	}
	if !entry.ExpiresAt.IsZero() && time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(c.path(key))
		return nil, ErrMiss
	}
	value, err := base64.StdEncoding.DecodeString(entry.Value)
	if err != nil {
		_ = os.Remove(c.path(key))
		return nil, ErrMiss
	}
	return value, nil
}

func (c *FileCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.baseDir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	entry := fileEntry{Value: base64.StdEncoding.EncodeToString(value)}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(key), raw, 0o644)
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *FileCache) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(c.baseDir, 0o755)
}

var _ Cache = (*FileCache)(nil)
