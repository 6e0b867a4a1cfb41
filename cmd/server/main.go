package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workshoplabs/refgate/internal/api"
	"github.com/workshoplabs/refgate/internal/backoffice"
	"github.com/workshoplabs/refgate/internal/cache"
	"github.com/workshoplabs/refgate/internal/config"
	"github.com/workshoplabs/refgate/internal/logger"
	"github.com/workshoplabs/refgate/internal/metrics"
	"github.com/workshoplabs/refgate/internal/refdata"
)

func main() {
	var (
		configPath string
		addr       string
	)

	rootCmd := &cobra.Command{
		Use:   "refgate",
		Short: "Caching reference-data gateway for the vehicle-service back office",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return run(cfg)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.LogPath != "" {
		if err := logger.Init(cfg.LogPath); err != nil {
			return err
		}
	} else if err := logger.InitFromEnv(); err != nil {
		return err
	}
	defer logger.Close()

	reg := metrics.New("refgate")

	refCache, searchCache, closers, err := buildCaches(cfg, reg)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	client := backoffice.New(backoffice.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout.Std(),
		Observe: reg.ObserveUpstream,
	})

	svc := refdata.New(refdata.Options{
		Reference: refCache,
		Search:    searchCache,
		Client:    client,
		Coalesce:  cfg.Cache.Coalesce,
	})

	handler := api.NewServer(api.Options{Service: svc, Metrics: reg.Handler()})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("gateway listening on %s (cache backend: %s)", cfg.Server.Addr, cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Infof("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Infof("gateway stopped")
	return nil
}

// buildCaches constructs the reference and search cache instances for the
// configured backend. For backends whose TTL is owned elsewhere (bolt file,
// daemon store) both classes share one instance.
func buildCaches(cfg *config.Config, reg *metrics.Registry) (ref, search cache.KV, closers []io.Closer, err error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		ref = cache.NewMemory(cache.MemoryOptions{TTL: cfg.Cache.TTL.Std(), Metrics: reg.Cache()})
		search = cache.NewMemory(cache.MemoryOptions{TTL: cfg.Cache.SearchTTL.Std(), Metrics: reg.Cache()})
		return ref, search, nil, nil

	case "bolt":
		path := cfg.Cache.Path
		if path == "" {
			path = "refgate.db"
		}
		store, err := cache.OpenBolt(path, cache.BoltOptions{TTL: cfg.Cache.TTL.Std()})
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, []io.Closer{store}, nil

	case "redis":
		rc, err := cache.NewRedis(cache.RedisOptions{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix,
			TTL:       cfg.Cache.TTL.Std(),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		sc, err := cache.NewRedis(cache.RedisOptions{
			Addr:      cfg.Cache.Redis.Addr,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
			KeyPrefix: cfg.Cache.Redis.KeyPrefix + "search:",
			TTL:       cfg.Cache.SearchTTL.Std(),
		})
		if err != nil {
			_ = rc.Close()
			return nil, nil, nil, err
		}
		return rc, sc, []io.Closer{rc, sc}, nil

	case "daemon":
		sock := cfg.Cache.Socket
		if sock == "" {
			sock = defaultSocketPath()
		}
		client := cache.NewClient(sock).WithMetrics(reg.Cache())
		return client, client, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func defaultSocketPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return home + "/.cache/refgate/cache.sock"
}
