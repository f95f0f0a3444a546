package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusmerch-pos/api/internal/cache"
	"github.com/campusmerch-pos/api/internal/store"
)

// ProductStore defines the store methods needed by the products handler.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]store.Product, error)
}

// ProductHandler serves the catalog snapshot.
type ProductHandler struct {
	store ProductStore
	cache cache.Cache
}

func NewProductHandler(st ProductStore, c cache.Cache) *ProductHandler {
	return &ProductHandler{store: st, cache: c}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/products", h.List)
}

type variantResponse struct {
	Label     string `json:"label"`
	Front     int    `json:"front"`
	Warehouse int    `json:"warehouse"`
}

type productResponse struct {
	Name     string            `json:"name"`
	Price    int               `json:"price"`
	Category string            `json:"category"`
	Variants []variantResponse `json:"variants"`
}

// List returns the full product set keyed by product key. The serialized
// body is cached until the next inventory-affecting transaction.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if body, ok, err := h.cache.Get(r.Context(), cache.ProductsKey); err == nil && ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
		return
	} else if err != nil {
		log.Printf("ERROR: products cache get: %v", err)
	}

	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		log.Printf("ERROR: list products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make(map[string]productResponse, len(products))
	for _, p := range products {
		variants := make([]variantResponse, len(p.Variants))
		for i, v := range p.Variants {
			variants[i] = variantResponse{Label: v.Label, Front: v.Front, Warehouse: v.Warehouse}
		}
		resp[p.Key] = productResponse{
			Name:     p.Name,
			Price:    p.Price,
			Category: p.Category,
			Variants: variants,
		}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		log.Printf("ERROR: encode products: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if err := h.cache.Set(r.Context(), cache.ProductsKey, body, 5*time.Minute); err != nil {
		log.Printf("ERROR: products cache set: %v", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}
