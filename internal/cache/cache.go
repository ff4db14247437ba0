// Package cache is a filesystem-backed TTL cache for tool-call results.
//
// Each entry is one file under the cache root, named by the URL-safe base64
// encoding of its key and holding a JSON envelope {value, expires_at}.
// Expired entries are purged lazily on read; there is no background sweep.
// Writes go through a temp file and an atomic rename, so a cancelled or
// crashed writer never leaves a torn entry visible. Concurrent writers for
// the same key are last-write-wins.
//
// All failures degrade: a read error is a miss, a write error is dropped
// (logged at debug). The cache must never fail the calling operation.
package cache

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Cache is a directory of TTL-bounded JSON entries.
type Cache struct {
	dir    string
	logger *slog.Logger

	// now is the clock; tests override it to simulate TTL elapse.
	now func() time.Time
}

// envelope is the on-disk entry format. ExpiresAt is epoch milliseconds.
type envelope struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt int64           `json:"expires_at"`
}

// New creates a cache rooted at dir, creating the directory if needed.
func New(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, logger: logger, now: time.Now}, nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, base64.RawURLEncoding.EncodeToString([]byte(key)))
}

// Get reads the entry for key into out. Returns false on miss, expiry, or
// any read/decode failure. An expired entry is deleted on the way out.
func (c *Cache) Get(key string, out any) bool {
	path := c.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		os.Remove(path)
		return false
	}

	if c.now().UnixMilli() >= env.ExpiresAt {
		os.Remove(path)
		return false
	}

	if err := json.Unmarshal(env.Value, out); err != nil {
		os.Remove(path)
		return false
	}
	return true
}

// Set stores value under key for ttl. Best-effort: failures are logged and
// swallowed. The write is temp-file-then-rename so readers never observe a
// partial entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Debug("cache set: marshal value", "error", err)
		return
	}
	env := envelope{
		Value:     raw,
		ExpiresAt: c.now().Add(ttl).UnixMilli(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		c.logger.Debug("cache set: marshal envelope", "error", err)
		return
	}

	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		c.logger.Debug("cache set: create temp", "error", err)
		return
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		c.logger.Debug("cache set: write temp", "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		c.logger.Debug("cache set: close temp", "error", err)
		return
	}
	if err := os.Rename(tmpName, c.path(key)); err != nil {
		os.Remove(tmpName)
		c.logger.Debug("cache set: rename", "error", err)
	}
}

// Clear removes the entry for key. Missing entries are not an error.
func (c *Cache) Clear(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// ClearAll removes every entry under the cache root.
func (c *Cache) ClearAll() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("cache clear all: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache clear all: %w", err)
		}
	}
	return nil
}

// WithCache returns the cached value for key if present and unexpired,
// otherwise invokes produce, stores its result for ttl, and returns it.
// Producer errors are returned unwrapped and nothing is cached for them.
func WithCache[T any](c *Cache, key string, ttl time.Duration, produce func() (T, error)) (T, error) {
	var cached T
	if c.Get(key, &cached) {
		return cached, nil
	}

	value, err := produce()
	if err != nil {
		return value, err
	}
	c.Set(key, value, ttl)
	return value, nil
}

// Fingerprint derives a deterministic cache key from an operation name and
// its parameters. encoding/json sorts map keys, so two semantically equal
// requests fingerprint identically regardless of argument order.
func Fingerprint(op string, params map[string]any) string {
	raw, err := json.Marshal(params)
	if err != nil {
		// Unmarshalable params cannot come from a decoded tool call;
		// fall back to an uncacheable-unique key rather than colliding.
		raw = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(raw)
	return op + ":" + hex.EncodeToString(sum[:])
}
