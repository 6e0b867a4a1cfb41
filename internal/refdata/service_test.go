package refdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/workshoplabs/refgate/internal/backoffice"
	"github.com/workshoplabs/refgate/internal/cache"
)

func TestCacheKeys(t *testing.T) {
	if got := featurePricesKey(42); got != "feature-prices-42" {
		t.Fatalf("feature prices key: %s", got)
	}
	if got := searchKey("customer", " Toyota "); got != "customer-search-toyota" {
		t.Fatalf("search key: %s", got)
	}
	if got := listKey("vendors", backoffice.ListParams{}); got != "vendors" {
		t.Fatalf("zero-param list key: %s", got)
	}
	p := backoffice.ListParams{Search: "bosch", PageSize: 10}
	if got := listKey("vendors", p); got != "vendors?page_size=10&search=bosch" {
		t.Fatalf("parameterized list key: %s", got)
	}
	// Same logical request, same key.
	if listKey("vendors", p) != listKey("vendors", backoffice.ListParams{PageSize: 10, Search: "bosch"}) {
		t.Fatal("equal params must produce equal keys")
	}
}

// newTestService wires a Service against an httptest upstream and returns
// the number of requests the upstream has served.
func newTestService(t *testing.T, handler http.Handler, coalesce bool) (*Service, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	svc := New(Options{
		Reference: cache.NewMemory(cache.MemoryOptions{}),
		Search:    cache.NewMemory(cache.MemoryOptions{}),
		Client:    backoffice.New(backoffice.Config{BaseURL: srv.URL}),
		Coalesce:  coalesce,
	})
	return svc, &calls
}

func TestHitSkipsUpstream(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Sedan"}]`))
	}), false)

	ctx := context.Background()
	first, err := svc.VehicleTypes(ctx)
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := svc.VehicleTypes(ctx)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
	if len(first) != 1 || len(second) != 1 || second[0].Name != "Sedan" {
		t.Fatalf("unexpected payloads: %+v / %+v", first, second)
	}
}

func TestFailedFetchDoesNotPopulate(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":3,"name":"Honda"}]`))
	}), false)

	ctx := context.Background()
	if _, err := svc.Makers(ctx); !errors.Is(err, backoffice.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	// The failure must not have been cached: the next call goes upstream
	// again and succeeds.
	fail.Store(false)
	makers, err := svc.Makers(ctx)
	if err != nil {
		t.Fatalf("recovery fetch: %v", err)
	}
	if len(makers) != 1 || makers[0].Name != "Honda" {
		t.Fatalf("unexpected makers: %+v", makers)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected two upstream calls, got %d", calls.Load())
	}

	// Now it is cached.
	if _, err := svc.Makers(ctx); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected cached hit, upstream calls=%d", calls.Load())
	}
}

func TestCancelledCallerSkipsCacheWrite(t *testing.T) {
	kv := cache.NewMemory(cache.MemoryOptions{})
	svc := New(Options{Reference: kv})

	ctx, cancel := context.WithCancel(context.Background())
	v, err := cached(ctx, svc, kv, "k", func(ctx context.Context) (string, error) {
		// The caller goes away while the fetch is in flight.
		cancel()
		return "late", nil
	})
	if err != nil {
		t.Fatalf("cached: %v", err)
	}
	if v != "late" {
		t.Fatalf("caller still receives the value, got %q", v)
	}
	if _, ok := kv.Get("k"); ok {
		t.Fatal("abandoned response must not populate the cache")
	}
}

func TestCoalesceCollapsesConcurrentMisses(t *testing.T) {
	kv := cache.NewMemory(cache.MemoryOptions{})
	svc := New(Options{Reference: kv, Coalesce: true})

	var fetches atomic.Int64
	fetch := func(ctx context.Context) (string, error) {
		fetches.Add(1)
		time.Sleep(50 * time.Millisecond)
		return "v", nil
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if v, err := cached(context.Background(), svc, kv, "shared", fetch); err != nil || v != "v" {
				t.Errorf("cached: %q %v", v, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := fetches.Load(); n != 1 {
		t.Fatalf("expected one coalesced fetch, got %d", n)
	}
}

func TestSearchTermNormalizedForKeyAndQuery(t *testing.T) {
	var queries []string
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"results":[{"id":8,"name":"Asha"}],"count":1,"next":null,"previous":null}`))
	}), false)

	ctx := context.Background()
	if _, err := svc.SearchCustomers(ctx, " Toyota "); err != nil {
		t.Fatalf("first search: %v", err)
	}
	// Spellings differing only in case or whitespace hit the same slot.
	if _, err := svc.SearchCustomers(ctx, "toyota"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call across spellings, got %d", calls.Load())
	}
	// The upstream query uses the same normalized term as the cache key.
	if len(queries) != 1 || queries[0] != "toyota" {
		t.Fatalf("expected normalized upstream query, got %q", queries)
	}
}

func TestUndecodableEntryRefetches(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":9,"name":"Truck"}]`))
	}), false)

	// Poison the cache slot with bytes that do not decode.
	svc.ref.Set("vehicle-types", []byte(`{{not json`))

	items, err := svc.VehicleTypes(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 || calls.Load() != 1 {
		t.Fatalf("expected refetch past poisoned entry: items=%+v calls=%d", items, calls.Load())
	}
}

func TestInvalidateAndReset(t *testing.T) {
	svc, calls := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"vendor":42,"feature":"oil change","price":350}]`))
	}), false)

	ctx := context.Background()
	if _, err := svc.FeaturePrices(ctx, 42); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := svc.FeaturePrices(ctx, 42); err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected cached hit, calls=%d", calls.Load())
	}

	svc.InvalidateFeaturePrices(42)
	if _, err := svc.FeaturePrices(ctx, 42); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected refetch after invalidation, calls=%d", calls.Load())
	}

	svc.Reset()
	if _, err := svc.FeaturePrices(ctx, 42); err != nil {
		t.Fatalf("refetch after reset: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected refetch after reset, calls=%d", calls.Load())
	}
}
