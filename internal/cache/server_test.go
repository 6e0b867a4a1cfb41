package cache_test

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/workshoplabs/refgate/internal/cache"
)

func startTestDaemon(t *testing.T) *cache.Client {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "cache.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	go cache.Serve(l, cache.NewMemory(cache.MemoryOptions{}))
	return cache.NewClient(sock)
}

func TestDaemonRoundTrip(t *testing.T) {
	c := startTestDaemon(t)

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss on empty daemon store")
	}

	c.Set("k", []byte("v"))
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("expected hit via daemon, got %q (hit=%v)", v, ok)
	}

	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete via daemon")
	}
}

func TestDaemonMultiDeleteAndClear(t *testing.T) {
	c := startTestDaemon(t)

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Set("keep", []byte("3"))

	c.Delete("a", "b")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a absent after multi-delete")
	}
	if _, ok := c.Get("keep"); !ok {
		t.Fatal("expected unrelated key to survive multi-delete")
	}

	c.Clear()
	if _, ok := c.Get("keep"); ok {
		t.Fatal("expected empty store after clear")
	}
}

func TestDaemonUnreachableDegradesToMiss(t *testing.T) {
	c := cache.NewClient(filepath.Join(t.TempDir(), "no-daemon.sock"))

	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss when daemon is unreachable")
	}
	// Writes and invalidations are best-effort no-ops.
	c.Set("k", []byte("v"))
	c.Delete("k")
	c.Clear()
}
