package engine

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion stamps every cache entry. Bumping it on a format change
// invalidates all prior entries lazily on read, without a migration; callers
// must be able to regenerate any entry from the source of truth.
const SchemaVersion = 1

// Cache is a durable SQLite-backed key/value store with per-entry expiry.
// A single coarse mutex serializes all operations: the underlying connection
// is not assumed safe for concurrent use, and entries are immutable once
// written (replace-or-delete only), so no finer-grained locking is needed.
type Cache struct {
	mu            sync.Mutex
	db            *sql.DB
	schemaVersion int

	hits   atomic.Int64
	misses atomic.Int64
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string, schemaVersion int) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("cache: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		key            TEXT PRIMARY KEY,
		value          TEXT NOT NULL,
		expires_at     REAL NOT NULL,
		schema_version INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init schema: %w", err)
	}
	return &Cache{db: db, schemaVersion: schemaVersion}, nil
}

// Get returns the stored value for key. Entries whose schema version differs
// from this cache's, or whose expiry has passed, are deleted lazily and
// reported absent.
func (c *Cache) Get(key string) (json.RawMessage, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		value     string
		expiresAt float64
		version   int
	)
	err := c.db.QueryRow(
		`SELECT value, expires_at, schema_version FROM entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt, &version)
	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get: %w", err)
	}

	if version != c.schemaVersion || expiresAt < nowSeconds() {
		if _, err := c.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("cache: evict: %w", err)
		}
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return json.RawMessage(value), true, nil
}

// Set upserts value under key with a TTL in days. Last writer wins; there is
// no optimistic concurrency.
func (c *Cache) Set(key string, value any, ttlDays int) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: set: marshal: %w", err)
	}
	expiresAt := nowSeconds() + float64(ttlDays)*86400

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(
		`REPLACE INTO entries (key, value, expires_at, schema_version) VALUES (?, ?, ?, ?)`,
		key, string(data), expiresAt, c.schemaVersion,
	); err != nil {
		return fmt.Errorf("cache: set: %w", err)
	}
	return nil
}

// Delete removes one entry. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(`DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// Clear removes all entries.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("cache: clear: %w", err)
	}
	return nil
}

// ClearExpired removes entries that are expired or stamped with a stale
// schema version, returning how many were deleted.
func (c *Cache) ClearExpired() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, err := c.db.Exec(
		`DELETE FROM entries WHERE expires_at < ? OR schema_version != ?`,
		nowSeconds(), c.schemaVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("cache: clear expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cache: clear expired: %w", err)
	}
	return n, nil
}

// Len reports the number of stored entries, including ones not yet lazily
// evicted.
func (c *Cache) Len() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("cache: count: %w", err)
	}
	return n, nil
}

// Stats returns hit/miss counters for metrics.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
