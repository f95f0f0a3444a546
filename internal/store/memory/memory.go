// Package memory is the in-memory Store implementation, used by tests and by
// the server when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/store"
)

type Store struct {
	mu       sync.Mutex
	products map[string]*store.Product // by key
	keys     []string                  // insertion order
	staff    map[string]store.Staff
	records  []store.Record
}

func New() *Store {
	return &Store{
		products: map[string]*store.Product{},
		staff:    map[string]store.Staff{},
	}
}

func (s *Store) ListProducts(_ context.Context) ([]store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]store.Product, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, copyProduct(*s.products[key]))
	}
	return out, nil
}

func (s *Store) GetProductByName(_ context.Context, name string) (*store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.byName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, name)
	}
	out := copyProduct(*p)
	return &out, nil
}

func (s *Store) UpsertProduct(_ context.Context, p store.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.Key]; !ok {
		s.keys = append(s.keys, p.Key)
	}
	stored := copyProduct(p)
	s.products[p.Key] = &stored
	return nil
}

func (s *Store) ApplyAdjustments(_ context.Context, adjustments []store.StockAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch against a scratch copy before committing.
	type target struct {
		variant *store.Variant
		adj     store.StockAdjustment
	}
	staged := make([]target, 0, len(adjustments))
	scratch := map[*store.Variant][2]int{}

	for _, adj := range adjustments {
		p := s.byName(adj.Name)
		if p == nil {
			return fmt.Errorf("%w: %s", store.ErrNotFound, adj.Name)
		}
		v := variantOf(p, adj.Label)
		if v == nil {
			return fmt.Errorf("%w: %s %s", store.ErrNoSuchVariant, adj.Name, adj.Label)
		}

		counts, ok := scratch[v]
		if !ok {
			counts = [2]int{v.Front, v.Warehouse}
		}
		counts[0] += adj.Front
		counts[1] += adj.Warehouse
		if counts[0] < 0 || counts[1] < 0 {
			return fmt.Errorf("%w: %s %s", store.ErrInsufficientStock, adj.Name, adj.Label)
		}
		scratch[v] = counts
		staged = append(staged, target{variant: v, adj: adj})
	}

	for _, t := range staged {
		t.variant.Front += t.adj.Front
		t.variant.Warehouse += t.adj.Warehouse
	}
	return nil
}

func (s *Store) GetStaff(_ context.Context, account string) (*store.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.staff[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, account)
	}
	return &st, nil
}

func (s *Store) CreateStaff(_ context.Context, st store.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.staff[st.Account] = st
	return nil
}

func (s *Store) AppendRecord(_ context.Context, r store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, r)
	return nil
}

func (s *Store) LatestReturns(_ context.Context, limit int) ([]store.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Records append in creation order, so walking backwards yields newest
	// first without relying on timestamp resolution.
	var returns []store.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Flow != enum.FlowReturn {
			continue
		}
		returns = append(returns, s.records[i])
		if limit > 0 && len(returns) == limit {
			break
		}
	}
	return returns, nil
}

func (s *Store) byName(name string) *store.Product {
	for _, key := range s.keys {
		if s.products[key].Name == name {
			return s.products[key]
		}
	}
	return nil
}

func variantOf(p *store.Product, label string) *store.Variant {
	for i := range p.Variants {
		if p.Variants[i].Label == label {
			return &p.Variants[i]
		}
	}
	return nil
}

func copyProduct(p store.Product) store.Product {
	p.Variants = append([]store.Variant(nil), p.Variants...)
	return p
}
