package backoffice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDecodeListBareArray(t *testing.T) {
	items, count, err := decodeList[VehicleType]([]byte(` [{"id":1,"name":"Sedan"},{"id":2,"name":"SUV"}]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if count != 2 || len(items) != 2 || items[0].Name != "Sedan" {
		t.Fatalf("unexpected result: count=%d items=%+v", count, items)
	}
}

func TestDecodeListEnvelope(t *testing.T) {
	body := []byte(`{"results":[{"id":7,"name":"Bosch"}],"count":41,"next":"http://x/api/vendors/?page=2","previous":null}`)
	items, count, err := decodeList[Vendor](body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if count != 41 || len(items) != 1 || items[0].ID != 7 {
		t.Fatalf("unexpected result: count=%d items=%+v", count, items)
	}
}

func TestDecodeListMalformed(t *testing.T) {
	if _, _, err := decodeList[Vendor]([]byte(`{"results": "nope"`)); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if _, _, err := decodeList[Vendor](nil); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse for empty body, got %v", err)
	}
}

func TestListParamsEncodeDeterministic(t *testing.T) {
	p := ListParams{Page: 2, PageSize: 50, Search: "toyota", Fields: []string{"id", "name"}, Ordering: "-id"}
	got := p.Encode()
	want := "fields=id%2Cname&ordering=-id&page=2&page_size=50&search=toyota"
	if got != want {
		t.Fatalf("encode mismatch:\n got %s\nwant %s", got, want)
	}
	if (ListParams{}).Encode() != "" {
		t.Fatal("zero params must encode empty")
	}
	if !(ListParams{}).IsZero() || p.IsZero() {
		t.Fatal("IsZero mismatch")
	}
}

func TestClientSendsAuthAndParams(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[],"count":0,"next":null,"previous":null}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "sekrit"})
	_, count, err := c.Vendors(context.Background(), ListParams{Search: "bosch", PageSize: 10})
	if err != nil {
		t.Fatalf("vendors: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected count 0, got %d", count)
	}
	if gotAuth != "Bearer sekrit" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotQuery != "page_size=10&search=bosch" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	if _, err := c.Makers(context.Background()); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestClientObserve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var resource, status string
	c := New(Config{
		BaseURL: srv.URL,
		Observe: func(res, st string, _ time.Duration) { resource, status = res, st },
	})
	if _, err := c.VehicleTypes(context.Background()); err != nil {
		t.Fatalf("vehicle types: %v", err)
	}
	if resource != "/api/vehicle-types/" || status != "200" {
		t.Fatalf("unexpected observation: %s %s", resource, status)
	}
}
