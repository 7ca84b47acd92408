package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factlock/internal/model"
)

func TestKey(t *testing.T) {
	inputs := map[string]any{"target": 500000, "drafts": "x"}

	k1, err := Key("tol=0.1", inputs)
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, _ := Key("tol=0.1", inputs)
	if k1 != k2 {
		t.Errorf("expected stable keys, got %s and %s", k1, k2)
	}
	if !strings.HasPrefix(k1, keyPrefix) {
		t.Errorf("expected prefix %s, got %s", keyPrefix, k1)
	}

	k3, _ := Key("tol=0.5", inputs)
	if k1 == k3 {
		t.Error("expected different rules to produce different keys")
	}

	if _, err := Key("x", func() {}); err == nil {
		t.Error("expected error for unencodable inputs")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("k"); found {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set("k", []byte(`{"a":1}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != `{"a":1}` {
		t.Errorf("expected hit with stored value, got %q %v", val, found)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 item, got %d", c.Len())
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte(`1`), 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)

	key := "factlock:v1:abc"
	if err := c.Set(key, []byte(`{"status":"HALT"}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "factlock_v1_abc.json")); err != nil {
		t.Errorf("expected cache file on disk: %v", err)
	}

	val, found := c.Get(key)
	if !found || string(val) != `{"status":"HALT"}` {
		t.Errorf("expected hit with stored value, got %q %v", val, found)
	}

	if err := c.Set("bad", []byte("not json"), 0); err == nil {
		t.Error("expected error for non-JSON value")
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("expected deleting a missing key to succeed, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no leftover files, found %d", len(entries))
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte(`1`), -time.Second)
	if _, found := c.Get("old"); found {
		t.Error("expected expired entry to miss")
	}

	if err := os.WriteFile(c.path("corrupt"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, found := c.Get("corrupt"); found {
		t.Error("expected corrupt entry to miss")
	}
	if _, err := os.Stat(c.path("corrupt")); !os.IsNotExist(err) {
		t.Error("expected corrupt entry to be removed")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set("k", []byte(`"v"`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh process shares only the disk layer
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	if _, found := second.memory.Get("k"); found {
		t.Fatal("expected empty memory layer")
	}

	val, found := second.Get("k")
	if !found || string(val) != `"v"` {
		t.Fatalf("expected disk hit, got %q %v", val, found)
	}
	if _, found := second.memory.Get("k"); !found {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := second.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := second.Get("k"); found {
		t.Error("expected miss after clear")
	}
}

func TestVerdictCache(t *testing.T) {
	vc := NewVerdictCache(NewMemoryCache(time.Minute, time.Minute), 0)

	if _, found := vc.Get("k"); found {
		t.Fatal("expected miss")
	}

	want := model.Verdict{
		Status:           model.StatusHalt,
		Reason:           "Hallucinated numbers detected: [999999.0]",
		Hallucinations:   []float64{999999},
		MatchedAddresses: []string{},
	}
	if err := vc.Put("k", want); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found := vc.Get("k")
	if !found {
		t.Fatal("expected hit")
	}
	if got.Status != want.Status || got.Reason != want.Reason || len(got.Hallucinations) != 1 {
		t.Errorf("unexpected cached verdict %+v", got)
	}

	hits, misses := vc.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := model.CacheConfig{Enabled: false}
	if NewFromConfig(cfg) != nil {
		t.Error("expected nil cache when disabled")
	}

	cfg = model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}
	if NewFromConfig(cfg) == nil {
		t.Error("expected cache when enabled")
	}
}
