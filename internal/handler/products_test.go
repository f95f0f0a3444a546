package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusmerch-pos/api/internal/handler"
	"github.com/campusmerch-pos/api/internal/store"
)

// --- Mocks ---

type mockProductStore struct {
	products []store.Product
	err      error
	calls    int
}

func (m *mockProductStore) ListProducts(_ context.Context) ([]store.Product, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

// memCache is a tiny real cache for handler tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func setupProductRouter(st *mockProductStore, c *memCache) *chi.Mux {
	h := handler.NewProductHandler(st, c)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// --- Tests ---

func TestProductListKeyedByProductKey(t *testing.T) {
	st := &mockProductStore{products: []store.Product{
		{
			Key: "hoodie-classic", Name: "Classic Hoodie", Price: 1200, Category: "apparel",
			Variants: []store.Variant{
				{Label: "M", Front: 6, Warehouse: 12},
				{Label: "L", Front: 5, Warehouse: 8},
			},
		},
		{Key: "sticker-pack", Name: "Sticker Pack", Price: 80, Category: "accessories"},
	}}
	r := setupProductRouter(st, newMemCache())

	req := httptest.NewRequest("GET", "/api/products", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}

	var resp map[string]struct {
		Name     string `json:"name"`
		Price    int    `json:"price"`
		Category string `json:"category"`
		Variants []struct {
			Label     string `json:"label"`
			Front     int    `json:"front"`
			Warehouse int    `json:"warehouse"`
		} `json:"variants"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	hoodie, ok := resp["hoodie-classic"]
	if !ok {
		t.Fatalf("missing product key, got %v", resp)
	}
	if hoodie.Price != 1200 || len(hoodie.Variants) != 2 {
		t.Errorf("hoodie: %+v", hoodie)
	}
	// Array order preserves the store's variant order.
	if hoodie.Variants[0].Label != "M" || hoodie.Variants[1].Label != "L" {
		t.Errorf("variant order: %+v", hoodie.Variants)
	}
	if sticker := resp["sticker-pack"]; len(sticker.Variants) != 0 {
		t.Errorf("sticker variants: %+v", sticker.Variants)
	}
}

func TestProductListServedFromCache(t *testing.T) {
	st := &mockProductStore{products: []store.Product{
		{Key: "tee-crest", Name: "Crest Tee", Price: 450, Category: "apparel"},
	}}
	r := setupProductRouter(st, newMemCache())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/products", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rr.Code)
		}
	}

	if st.calls != 1 {
		t.Errorf("store calls: got %d, want 1 (later requests must hit the cache)", st.calls)
	}
}

func TestProductListStoreError(t *testing.T) {
	st := &mockProductStore{err: errors.New("connection refused")}
	r := setupProductRouter(st, newMemCache())

	req := httptest.NewRequest("GET", "/api/products", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if resp := decodeBody(t, rr); resp["error"] != "internal server error" {
		t.Errorf("body: %v", resp)
	}
}
