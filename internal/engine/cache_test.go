package engine

import (
	"encoding/json"
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T, schemaVersion int) *Cache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "cache", "test.sqlite3"), schemaVersion)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheRoundtrip(t *testing.T) {
	c := openTestCache(t, 1)

	type payload struct {
		Video string `json:"video"`
		N     int    `json:"n"`
	}
	want := payload{Video: "abcdefghijk", N: 7}
	if err := c.Set("k1", want, 14); err != nil {
		t.Fatal(err)
	}

	raw, ok, err := c.Get("k1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("entry missing after Set")
	}
	var got payload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	_, ok, err = c.Get("absent")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("hit for a key never set")
	}
}

func TestCacheExpiry(t *testing.T) {
	c := openTestCache(t, 1)

	// Negative TTL writes an already-expired entry.
	if err := c.Set("old", "value", -1); err != nil {
		t.Fatal(err)
	}
	_, ok, err := c.Get("old")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expired entry was served")
	}

	// The lazy delete removed it.
	n, err := c.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Len = %d after expired read, want 0", n)
	}
}

func TestCacheSchemaVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.sqlite3")

	c1, err := OpenCache(path, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := c1.Set("k", "v", 14); err != nil {
		t.Fatal(err)
	}
	if err := c1.Close(); err != nil {
		t.Fatal(err)
	}

	// Bumping the schema version invalidates existing entries.
	c2, err := OpenCache(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()

	_, ok, err := c2.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("stale-schema entry was served")
	}
}

func TestCacheClear(t *testing.T) {
	c := openTestCache(t, 1)

	if err := c.Set("live", "v", 14); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("dead", "v", -1); err != nil {
		t.Fatal(err)
	}

	removed, err := c.ClearExpired()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("ClearExpired removed %d, want 1", removed)
	}

	if _, ok, _ := c.Get("live"); !ok {
		t.Error("ClearExpired dropped a live entry")
	}

	if err := c.Delete("live"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get("live"); ok {
		t.Error("entry survived Delete")
	}

	if err := c.Set("a", 1, 14); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("b", 2, 14); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatal(err)
	}
	n, err := c.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Len = %d after Clear, want 0", n)
	}
}

func TestCacheStats(t *testing.T) {
	c := openTestCache(t, 1)

	if err := c.Set("k", "v", 14); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get("k"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := c.Get("missing"); err != nil {
		t.Fatal(err)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits / %d misses, want 1/1", hits, misses)
	}
}
