package cart

import (
	"errors"
	"fmt"
	"log"

	"github.com/campusmerch-pos/api/internal/catalog"
	"github.com/campusmerch-pos/api/internal/client"
)

// Errors returned by cart operations.
var (
	ErrIndexOutOfRange = errors.New("cart line index out of range")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
)

// Line is one cart entry: a product key, a chosen variant label ("" when the
// product has no variants) and a positive quantity. Duplicate product entries
// are independent lines.
type Line struct {
	Key     string
	Variant string
	Qty     int
}

// Cart is an ordered list of selections against a catalog snapshot. It is
// owned by a single session; mutation happens synchronously within handlers.
type Cart struct {
	catalog *catalog.Cache
	mode    string
	lines   []Line
}

// New creates an empty cart reading stock in the given operating mode
// (enum.ModeFront for sale pages, enum.ModeWarehouse for management pages).
func New(cat *catalog.Cache, mode string) *Cart {
	return &Cart{catalog: cat, mode: mode}
}

// AddItem appends a new line for the product with quantity 1. The default
// variant is the first in display order with nonzero stock in the active
// mode, the first variant at all when none has stock, or "" when the product
// has no variants. Out-of-stock variants are still addable (staff override);
// the quantity cap handles the rest.
func (c *Cart) AddItem(key string) error {
	p, err := c.catalog.Get(key)
	if err != nil {
		return err
	}

	variant := ""
	sorted := catalog.SortedVariants(p)
	if len(sorted) > 0 {
		variant = sorted[0].Label
		for _, v := range sorted {
			if catalog.Available(v, c.mode) > 0 {
				variant = v.Label
				break
			}
		}
	}

	c.lines = append(c.lines, Line{Key: key, Variant: variant, Qty: 1})
	return nil
}

// SetVariant replaces the variant of line i and resets quantity to 1, a
// conservative default that avoids stale over-selection.
func (c *Cart) SetVariant(i int, label string) error {
	if i < 0 || i >= len(c.lines) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	c.lines[i].Variant = label
	c.lines[i].Qty = 1
	return nil
}

// SetQuantity sets the quantity of line i. Quantities above the stock cap are
// accepted (the UI constrains the input range; staff may deliberately exceed
// it for backorders) but logged for audit.
func (c *Cart) SetQuantity(i, qty int) error {
	if i < 0 || i >= len(c.lines) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if qty < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	line := c.lines[i]
	if limit := c.maxQuantity(line); qty > limit {
		log.Printf("WARN: cart quantity %d exceeds stock cap %d for %s %s", qty, limit, line.Key, line.Variant)
	}
	c.lines[i].Qty = qty
	return nil
}

// RemoveItem removes line i. Indices of subsequent lines shift down by one;
// callers must not reuse indices held across a removal.
func (c *Cart) RemoveItem(i int) error {
	if i < 0 || i >= len(c.lines) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// MaxQuantity returns the upper bound for line i's quantity selector:
// the active-mode stock of the chosen variant, minimum 1 so the range is
// never empty.
func (c *Cart) MaxQuantity(i int) (int, error) {
	if i < 0 || i >= len(c.lines) {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return c.maxQuantity(c.lines[i]), nil
}

func (c *Cart) maxQuantity(line Line) int {
	stock := c.catalog.StockOf(line.Key, line.Variant, c.mode)
	if stock < 1 {
		return 1
	}
	return stock
}

// Total sums price*qty over all lines. Prices are integers; products missing
// from the snapshot contribute nothing.
func (c *Cart) Total() int {
	total := 0
	for _, line := range c.lines {
		p, err := c.catalog.Get(line.Key)
		if err != nil {
			continue
		}
		total += p.Price * line.Qty
	}
	return total
}

// Snapshot deep-copies the cart into an immutable item list for a wizard
// draft. Later cart mutation does not affect the returned slice.
func (c *Cart) Snapshot() []client.Item {
	items := make([]client.Item, 0, len(c.lines))
	for _, line := range c.lines {
		p, err := c.catalog.Get(line.Key)
		if err != nil {
			continue
		}
		items = append(items, client.Item{Name: p.Name, Size: line.Variant, Qty: line.Qty})
	}
	return items
}
