package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/campusmerch-pos/api/internal/client"
	"github.com/campusmerch-pos/api/internal/enum"
)

// ErrNoProduct is returned when a product key is not in the current snapshot.
var ErrNoProduct = errors.New("product not found")

// CategoryAll is the filter value that matches every category.
const CategoryAll = "all"

// sizeOrder is the canonical size sequence. When every variant label of a
// product belongs to it, variants display in this order; otherwise the
// catalog's native order is kept. Evaluated per product.
var sizeOrder = []string{"S", "M", "L", "XL", "2XL", "3XL", "4XL", "5XL"}

// Fetcher supplies the product snapshot. Satisfied by *client.Client; narrow
// interface for testability.
type Fetcher interface {
	Products(ctx context.Context) (map[string]client.Product, error)
}

// Cache holds the last-fetched product snapshot. Refresh replaces it
// wholesale; there is no incremental patching. Not safe for concurrent
// mutation: a Cache belongs to one session.
type Cache struct {
	fetcher    Fetcher
	products   map[string]client.Product
	categories []string
}

// New creates an empty Cache over the given fetcher.
func New(f Fetcher) *Cache {
	return &Cache{fetcher: f, products: map[string]client.Product{}}
}

// Refresh fetches the full product set and replaces the cache atomically,
// recomputing the distinct category set. On error the previous snapshot is
// kept.
func (c *Cache) Refresh(ctx context.Context) error {
	products, err := c.fetcher.Products(ctx)
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}

	seen := map[string]bool{}
	var categories []string
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)

	c.products = products
	c.categories = categories
	return nil
}

// Get returns the product for key.
func (c *Cache) Get(key string) (client.Product, error) {
	p, ok := c.products[key]
	if !ok {
		return client.Product{}, fmt.Errorf("%w: %s", ErrNoProduct, key)
	}
	return p, nil
}

// Len reports the number of products in the snapshot.
func (c *Cache) Len() int {
	return len(c.products)
}

// Categories returns the distinct category labels of the current snapshot,
// sorted.
func (c *Cache) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// StockOf returns the stock count of the given variant in the given mode
// (enum.ModeFront or enum.ModeWarehouse). Missing products or variants count
// as 0.
func (c *Cache) StockOf(key, label, mode string) int {
	p, ok := c.products[key]
	if !ok {
		return 0
	}
	for _, v := range p.Variants {
		if v.Label == label {
			return stockFor(v, mode)
		}
	}
	return 0
}

// PriceByName resolves the current unit price by product display name. Used
// by the exchange calculator, whose historical records carry names, not keys.
// First match wins when names collide.
func (c *Cache) PriceByName(name string) (int, bool) {
	for _, p := range c.products {
		if p.Name == name {
			return p.Price, true
		}
	}
	return 0, false
}

// Entry pairs a product with its key for deterministic listing.
type Entry struct {
	Key     string
	Product client.Product
}

// Filter returns the products matching the category filter (CategoryAll or a
// specific label) and case-insensitive keyword. A keyword matches when it is
// a substring of the product name or of any variant label. Results are sorted
// by key.
func (c *Cache) Filter(category, keyword string) []Entry {
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	var out []Entry
	for key, p := range c.products {
		if category != CategoryAll && category != p.Category {
			continue
		}
		if keyword != "" && !matches(p, keyword) {
			continue
		}
		out = append(out, Entry{Key: key, Product: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func matches(p client.Product, keyword string) bool {
	if strings.Contains(strings.ToLower(p.Name), keyword) {
		return true
	}
	for _, v := range p.Variants {
		if strings.Contains(strings.ToLower(v.Label), keyword) {
			return true
		}
	}
	return false
}

// SortedVariants returns the product's variants in display order: the
// canonical size order when every label is canonical, native order otherwise.
func SortedVariants(p client.Product) []client.Variant {
	if !allCanonical(p.Variants) {
		out := make([]client.Variant, len(p.Variants))
		copy(out, p.Variants)
		return out
	}

	byLabel := make(map[string]client.Variant, len(p.Variants))
	for _, v := range p.Variants {
		byLabel[v.Label] = v
	}
	out := make([]client.Variant, 0, len(p.Variants))
	for _, label := range sizeOrder {
		if v, ok := byLabel[label]; ok {
			out = append(out, v)
		}
	}
	return out
}

func allCanonical(variants []client.Variant) bool {
	for _, v := range variants {
		found := false
		for _, label := range sizeOrder {
			if v.Label == label {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func stockFor(v client.Variant, mode string) int {
	count := v.Front
	if mode == enum.ModeWarehouse {
		count = v.Warehouse
	}
	if count < 0 {
		return 0
	}
	return count
}

// Available reports the displayable quantity for a variant: max(0, count).
func Available(v client.Variant, mode string) int {
	return stockFor(v, mode)
}
