// Package refdata is the cached read path for back-office reference data.
// Every lookup follows the same protocol: derive a deterministic key, try
// the cache, and on a miss fetch upstream, populating the cache only from a
// successful response. Reads of slow-changing reference sets and of search
// results go through separate cache instances so each class gets its own
// staleness window.
package refdata

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/singleflight"

	"github.com/workshoplabs/refgate/internal/backoffice"
	"github.com/workshoplabs/refgate/internal/cache"
)

// Service resolves reference data through a cache-then-upstream read path.
type Service struct {
	ref      cache.KV
	search   cache.KV
	client   *backoffice.Client
	coalesce bool
	group    singleflight.Group
}

// Options configures a Service.
type Options struct {
	// Reference caches slow-changing lookup sets (vehicle types, makers,
	// categories, vendor pricing).
	Reference cache.KV
	// Search caches parameterized list and search results. Falls back to
	// Reference when nil.
	Search cache.KV
	Client *backoffice.Client
	// Coalesce collapses concurrent misses for the same key into a single
	// upstream fetch. When off, concurrent misses fetch independently and
	// the last response to land wins the cache slot.
	Coalesce bool
}

// New creates a Service.
func New(opts Options) *Service {
	search := opts.Search
	if search == nil {
		search = opts.Reference
	}
	return &Service{
		ref:      opts.Reference,
		search:   search,
		client:   opts.Client,
		coalesce: opts.Coalesce,
	}
}

// cached runs the consumer protocol for one key: cache hit decodes and
// returns; miss fetches and, on success, stores the encoded value. The
// write is skipped when the caller has gone away, so an abandoned response
// cannot repopulate the cache.
func cached[T any](ctx context.Context, s *Service, kv cache.KV, key string, fetch func(context.Context) (T, error)) (T, error) {
	if b, ok := kv.Get(key); ok {
		var v T
		if json.Unmarshal(b, &v) == nil {
			return v, nil
		}
		// Undecodable entry: treat as a miss and refetch.
	}

	do := func() (T, error) {
		v, err := fetch(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		if ctx.Err() == nil {
			if b, err := json.Marshal(v); err == nil {
				kv.Set(key, b)
			}
		}
		return v, nil
	}

	if !s.coalesce {
		return do()
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		return do()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// listPayload keeps the items of a paginated response together with its
// total count so both survive the cache round-trip.
type listPayload[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// VehicleTypes returns the vehicle-type reference set.
func (s *Service) VehicleTypes(ctx context.Context) ([]backoffice.VehicleType, error) {
	return cached(ctx, s, s.ref, "vehicle-types", s.client.VehicleTypes)
}

// Makers returns the maker reference set.
func (s *Service) Makers(ctx context.Context) ([]backoffice.Maker, error) {
	return cached(ctx, s, s.ref, "makers", s.client.Makers)
}

// Categories returns the category reference set.
func (s *Service) Categories(ctx context.Context) ([]backoffice.Category, error) {
	return cached(ctx, s, s.ref, "categories", s.client.Categories)
}

// FeaturePrices returns one vendor's purchase pricing.
func (s *Service) FeaturePrices(ctx context.Context, vendorID int) ([]backoffice.FeaturePrice, error) {
	key := featurePricesKey(vendorID)
	return cached(ctx, s, s.ref, key, func(ctx context.Context) ([]backoffice.FeaturePrice, error) {
		return s.client.FeaturePrices(ctx, vendorID)
	})
}

// Vendors lists vendors. The unparameterized full set is reference data;
// filtered or paginated requests use the short-lived search cache.
func (s *Service) Vendors(ctx context.Context, params backoffice.ListParams) ([]backoffice.Vendor, int, error) {
	kv := s.ref
	if !params.IsZero() {
		kv = s.search
	}
	p, err := cached(ctx, s, kv, listKey("vendors", params), func(ctx context.Context) (listPayload[backoffice.Vendor], error) {
		items, count, err := s.client.Vendors(ctx, params)
		return listPayload[backoffice.Vendor]{Items: items, Count: count}, err
	})
	return p.Items, p.Count, err
}

// Products lists catalog products through the search cache.
func (s *Service) Products(ctx context.Context, params backoffice.ListParams) ([]backoffice.Product, int, error) {
	p, err := cached(ctx, s, s.search, listKey("products", params), func(ctx context.Context) (listPayload[backoffice.Product], error) {
		items, count, err := s.client.Products(ctx, params)
		return listPayload[backoffice.Product]{Items: items, Count: count}, err
	})
	return p.Items, p.Count, err
}

// SearchCustomers looks up customers by free-text term. The term is
// normalized once, so the cached result and the upstream query always agree.
func (s *Service) SearchCustomers(ctx context.Context, term string) ([]backoffice.Customer, error) {
	term = normalizeTerm(term)
	key := searchKey("customer", term)
	p, err := cached(ctx, s, s.search, key, func(ctx context.Context) (listPayload[backoffice.Customer], error) {
		items, count, err := s.client.Customers(ctx, backoffice.ListParams{Search: term})
		return listPayload[backoffice.Customer]{Items: items, Count: count}, err
	})
	return p.Items, err
}

// InvalidateFeaturePrices drops one vendor's cached pricing, e.g. after a
// purchase-price update lands upstream.
func (s *Service) InvalidateFeaturePrices(vendorIDs ...int) {
	keys := make([]string, len(vendorIDs))
	for i, id := range vendorIDs {
		keys[i] = featurePricesKey(id)
	}
	s.ref.Delete(keys...)
}

// Invalidate drops the named keys from both caches. Used by the admin
// surface, which speaks raw cache keys.
func (s *Service) Invalidate(keys ...string) {
	s.ref.Delete(keys...)
	if s.search != s.ref {
		s.search.Delete(keys...)
	}
}

// Reset empties both caches. Full invalidation for logout or an explicit
// refresh-all.
func (s *Service) Reset() {
	s.ref.Clear()
	if s.search != s.ref {
		s.search.Clear()
	}
}
