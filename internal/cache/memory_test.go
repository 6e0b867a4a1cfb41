package cache_test

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/workshoplabs/refgate/internal/cache"
	"github.com/workshoplabs/refgate/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitWriter(io.Discard)
	os.Exit(m.Run())
}

func TestMemorySetThenGet(t *testing.T) {
	c := cache.NewMemory(cache.MemoryOptions{})

	c.Set("vehicle-types", []byte(`[{"id":1,"name":"Sedan"}]`))

	v, ok := c.Get("vehicle-types")
	if !ok {
		t.Fatal("expected hit immediately after set")
	}
	if !bytes.Equal(v, []byte(`[{"id":1,"name":"Sedan"}]`)) {
		t.Fatalf("unexpected value: %s", v)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	c := cache.NewMemory(cache.MemoryOptions{})

	if _, ok := c.Get("never-set"); ok {
		t.Fatal("expected miss for key that was never set")
	}
}

func TestMemoryLastWriteWins(t *testing.T) {
	c := cache.NewMemory(cache.MemoryOptions{})

	c.Set("k", []byte("v1"))
	c.Set("k", []byte("v2"))

	v, ok := c.Get("k")
	if !ok || string(v) != "v2" {
		t.Fatalf("expected v2, got %q (hit=%v)", v, ok)
	}
}

func TestMemoryTTLBoundary(t *testing.T) {
	const ttl = 300000 * time.Millisecond
	start := time.Now()
	now := start
	c := cache.NewMemory(cache.MemoryOptions{
		TTL: ttl,
		Now: func() time.Time { return now },
	})

	c.Set("x", []byte("1"))

	now = start.Add(ttl - time.Millisecond)
	if v, ok := c.Get("x"); !ok || string(v) != "1" {
		t.Fatalf("expected fresh hit just before TTL, got %q (hit=%v)", v, ok)
	}

	now = start.Add(ttl)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expected miss exactly at TTL")
	}

	now = start.Add(ttl + time.Millisecond)
	if _, ok := c.Get("x"); ok {
		t.Fatal("expected miss just past TTL")
	}
}

func TestMemoryStaleEntryLeftInPlace(t *testing.T) {
	start := time.Now()
	now := start
	c := cache.NewMemory(cache.MemoryOptions{
		TTL: time.Minute,
		Now: func() time.Time { return now },
	})

	c.Set("k", []byte("old"))
	now = start.Add(2 * time.Minute)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected stale entry to read as absent")
	}
	// The stale entry is not evicted by the read.
	if c.Len() != 1 {
		t.Fatalf("expected stale entry to remain, len=%d", c.Len())
	}

	// A fresh write overwrites it and reads hit again.
	c.Set("k", []byte("new"))
	if v, ok := c.Get("k"); !ok || string(v) != "new" {
		t.Fatalf("expected new value after overwrite, got %q (hit=%v)", v, ok)
	}
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	c := cache.NewMemory(cache.MemoryOptions{})

	c.Delete("absent") // never set: no-op, no panic

	c.Set("k", []byte("v"))
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
	c.Delete("k") // second delete is a no-op
}

func TestMemoryDeleteMany(t *testing.T) {
	c := cache.NewMemory(cache.MemoryOptions{})

	c.Set("b", []byte("vb"))
	c.Set("keep", []byte("vk"))

	// Only "b" exists among the deleted keys.
	c.Delete("a", "b", "c")

	for _, k := range []string{"a", "b", "c"} {
		if _, ok := c.Get(k); ok {
			t.Fatalf("expected %q absent after multi-delete", k)
		}
	}
	if v, ok := c.Get("keep"); !ok || string(v) != "vk" {
		t.Fatal("unrelated key must be unaffected by multi-delete")
	}
}

func TestMemoryClear(t *testing.T) {
	c := cache.NewMemory(cache.MemoryOptions{})

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Clear()

	for _, k := range []string{"a", "b"} {
		if _, ok := c.Get(k); ok {
			t.Fatalf("expected %q absent after clear", k)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after clear, len=%d", c.Len())
	}
}

func TestMemoryNegativeTTLNeverExpires(t *testing.T) {
	start := time.Now()
	now := start
	c := cache.NewMemory(cache.MemoryOptions{
		TTL: -1,
		Now: func() time.Time { return now },
	})

	c.Set("k", []byte("v"))
	now = start.Add(24 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit with expiry disabled")
	}
}

type countingMetrics struct {
	hits, misses, stale, writes, invalidates int
}

func (m *countingMetrics) Hit()        { m.hits++ }
func (m *countingMetrics) Miss()       { m.misses++ }
func (m *countingMetrics) Stale()      { m.stale++ }
func (m *countingMetrics) Write()      { m.writes++ }
func (m *countingMetrics) Invalidate() { m.invalidates++ }

func TestMemoryMetrics(t *testing.T) {
	start := time.Now()
	now := start
	m := &countingMetrics{}
	c := cache.NewMemory(cache.MemoryOptions{
		TTL:     time.Minute,
		Now:     func() time.Time { return now },
		Metrics: m,
	})

	c.Get("missing")
	c.Set("k", []byte("v"))
	c.Get("k")
	now = start.Add(2 * time.Minute)
	c.Get("k")
	c.Delete("k")
	c.Clear()

	if m.misses != 1 || m.writes != 1 || m.hits != 1 || m.stale != 1 || m.invalidates != 2 {
		t.Fatalf("unexpected counts: %+v", *m)
	}

	// A delete with no keys is a no-op and records nothing.
	c.Delete()
	if m.invalidates != 2 {
		t.Fatalf("empty delete must not count as invalidation, got %d", m.invalidates)
	}
}
