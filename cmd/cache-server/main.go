package main

import (
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/workshoplabs/refgate/internal/cache"
	"github.com/workshoplabs/refgate/internal/logger"
)

// The cache daemon owns a persistent TTL store on a Unix socket so gateway,
// MCP server, and one-off tools share one cache across process restarts.

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	sock := defaultString(os.Getenv("REFGATE_CACHE_SOCK"), defaultSocketPath())
	db := defaultString(os.Getenv("REFGATE_CACHE_DB"), defaultDBPath())
	ttl := cache.DefaultTTL
	if v := os.Getenv("REFGATE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}

	// Ensure socket and db dirs exist and remove stale socket
	_ = os.MkdirAll(filepath.Dir(sock), 0o755)
	_ = os.MkdirAll(filepath.Dir(db), 0o755)
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		panic(err)
	}
	defer l.Close()
	_ = os.Chmod(sock, 0o600)

	store, err := cache.OpenBolt(db, cache.BoltOptions{TTL: ttl})
	if err != nil {
		panic(err)
	}
	defer store.Close()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		_ = l.Close()
		_ = os.Remove(sock)
	}()

	logger.Infof("cache daemon listening on %s (db %s, ttl %s)", sock, db, ttl)
	cache.Serve(l, store)
}

func defaultSocketPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "refgate", "cache.sock")
}

func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "refgate", "cache.db")
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
