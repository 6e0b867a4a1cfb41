package backoffice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUpstream wraps transport failures and non-2xx responses from the
	// back-office API.
	ErrUpstream = errors.New("backoffice: upstream error")
	// ErrInvalidResponse wraps payloads that are not valid JSON of the
	// expected shape.
	ErrInvalidResponse = errors.New("backoffice: invalid response")
)

// Config holds connection settings for the back-office REST API.
type Config struct {
	BaseURL string
	// Token, when set, is sent as a bearer token on every request.
	Token   string
	Timeout time.Duration
	// Observe, when set, is called once per request with the resource
	// path, the HTTP status (or "error"), and the elapsed time.
	Observe func(resource, status string, d time.Duration)
}

// Client is a thin HTTP client for the back-office API. It owns no caching;
// the refdata layer decides what to remember.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
	observe func(resource, status string, d time.Duration)
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		observe: cfg.Observe,
	}
}

// get issues a GET against path (e.g. "/api/vehicle-types/") with the given
// query parameters and returns the raw body of a 2xx response.
func (c *Client) get(ctx context.Context, path string, params ListParams) ([]byte, error) {
	u := c.baseURL + path
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.record(path, "error", start)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	c.record(path, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrUpstream, path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return body, nil
}

func (c *Client) record(resource, status string, start time.Time) {
	if c.observe != nil {
		c.observe(resource, status, time.Since(start))
	}
}

// decodeList accepts either a bare JSON array or the {results, count, next,
// previous} envelope, sniffed by the first non-space byte. The count for a
// bare array is its length.
func decodeList[T any](body []byte) ([]T, int, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, 0, fmt.Errorf("%w: empty body", ErrInvalidResponse)
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return items, len(items), nil
	}
	var page Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return page.Results, page.Count, nil
}

func list[T any](ctx context.Context, c *Client, path string, params ListParams) ([]T, int, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, 0, err
	}
	return decodeList[T](body)
}

// VehicleTypes returns the full vehicle-type reference set.
func (c *Client) VehicleTypes(ctx context.Context) ([]VehicleType, error) {
	items, _, err := list[VehicleType](ctx, c, "/api/vehicle-types/", ListParams{})
	return items, err
}

// Makers returns the full maker reference set.
func (c *Client) Makers(ctx context.Context) ([]Maker, error) {
	items, _, err := list[Maker](ctx, c, "/api/makers/", ListParams{})
	return items, err
}

// Categories returns the full product category reference set.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	items, _, err := list[Category](ctx, c, "/api/categories/", ListParams{})
	return items, err
}

// Vendors lists vendors, optionally filtered and paginated.
func (c *Client) Vendors(ctx context.Context, params ListParams) ([]Vendor, int, error) {
	return list[Vendor](ctx, c, "/api/vendors/", params)
}

// Products lists catalog products, optionally filtered and paginated.
func (c *Client) Products(ctx context.Context, params ListParams) ([]Product, int, error) {
	return list[Product](ctx, c, "/api/products/", params)
}

// Customers lists customers, optionally filtered and paginated.
func (c *Client) Customers(ctx context.Context, params ListParams) ([]Customer, int, error) {
	return list[Customer](ctx, c, "/api/customers/", params)
}

// FeaturePrices returns the purchase prices one vendor quotes per feature.
func (c *Client) FeaturePrices(ctx context.Context, vendorID int) ([]FeaturePrice, error) {
	path := fmt.Sprintf("/api/vendors/%d/feature-prices/", vendorID)
	items, _, err := list[FeaturePrice](ctx, c, path, ListParams{})
	return items, err
}
