package main

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/workshoplabs/refgate/internal/backoffice"
	"github.com/workshoplabs/refgate/internal/cache"
	"github.com/workshoplabs/refgate/internal/config"
	"github.com/workshoplabs/refgate/internal/logger"
	"github.com/workshoplabs/refgate/internal/refdata"
	"github.com/workshoplabs/refgate/internal/tools"
)

func main() {
	if err := logger.InitFromEnv(); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Infof("starting refgate MCP server")

	cfg := config.Default()
	config.LoadFromEnv(cfg)

	// Prefer the shared cache daemon; fall back to an in-process cache so
	// the server still works without it (each process then caches alone).
	sock := cfg.Cache.Socket
	if sock == "" {
		sock = defaultSocketPath()
	}
	var kv cache.KV
	if probeSocket(sock) {
		logger.Infof("using cache daemon at %s", sock)
		kv = cache.NewClient(sock)
	} else {
		logger.Warnf("cache daemon unreachable at %s, using in-process cache", sock)
		kv = cache.NewMemory(cache.MemoryOptions{TTL: cfg.Cache.TTL.Std()})
	}

	client := backoffice.New(backoffice.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: cfg.Upstream.Timeout.Std(),
	})
	svc := refdata.New(refdata.Options{
		Reference: kv,
		Client:    client,
		Coalesce:  cfg.Cache.Coalesce,
	})

	s := server.NewMCPServer(
		"Refgate",
		"0.1.0",
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("list-vehicle-types",
		mcp.WithDescription(multiline(
			"Lists the vehicle type reference set from the back-office catalog",
			"Results are cached; repeated calls within the staleness window do not hit the API",
		)),
	), tools.ListVehicleTypesHandler(svc))

	s.AddTool(mcp.NewTool("list-makers",
		mcp.WithDescription("Lists the vehicle maker reference set from the back-office catalog"),
	), tools.ListMakersHandler(svc))

	s.AddTool(mcp.NewTool("list-categories",
		mcp.WithDescription("Lists the product category reference set, including parent links"),
	), tools.ListCategoriesHandler(svc))

	s.AddTool(mcp.NewTool("search-vendors",
		mcp.WithDescription(multiline(
			"Searches vendors by free-text query",
			"Returns vendor ids, names, and phone numbers",
		)),
		mcp.WithString("query", mcp.Required(), mcp.Description("The search term")),
	), tools.SearchVendorsHandler(svc))

	s.AddTool(mcp.NewTool("vendor-feature-prices",
		mcp.WithDescription("Returns the purchase prices one vendor quotes per service feature"),
		mcp.WithString("vendor_id", mcp.Required(), mcp.Description("Numeric vendor id")),
	), tools.VendorFeaturePricesHandler(svc))

	s.AddTool(mcp.NewTool("search-customers",
		mcp.WithDescription("Searches customers by free-text query (name or phone)"),
		mcp.WithString("query", mcp.Required(), mcp.Description("The search term")),
	), tools.SearchCustomersHandler(svc))

	logger.Infof("serving MCP on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
	}
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func probeSocket(sock string) bool {
	conn, err := net.DialTimeout("unix", sock, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func defaultSocketPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "refgate", "cache.sock")
}
