// Package service applies transaction flows to the inventory store: stock
// movements, discount totals and the transaction record log.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/pricing"
	"github.com/campusmerch-pos/api/internal/store"
)

// Errors returned by the transaction service.
var (
	ErrEmptyItems = errors.New("items are required")
)

// Item is one transaction line.
type Item struct {
	Name string
	Size string
	Qty  int
}

// Service owns the transaction business logic over a Store.
type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

// Sale deducts front stock and returns the discounted total.
func (s *Service) Sale(ctx context.Context, staff, identity, channel, orderID string, items []Item) (int, error) {
	total, err := s.apply(ctx, items, -1, 0)
	if err != nil {
		return 0, err
	}
	total = pricing.Discounted(identity, total)

	err = s.record(ctx, store.Record{
		Flow: enum.FlowSale, Staff: staff, Identity: identity, Channel: channel,
		OrderID: orderID, Total: total, Items: toRecordItems(items),
	})
	return total, err
}

// Gift deducts front stock with no money involved.
func (s *Service) Gift(ctx context.Context, staff, giver string, items []Item) error {
	if _, err := s.apply(ctx, items, -1, 0); err != nil {
		return err
	}
	return s.record(ctx, store.Record{
		Flow: enum.FlowGift, Staff: staff, Giver: giver, Items: toRecordItems(items),
	})
}

// Return adds front stock back and returns the discounted refund total.
func (s *Service) Return(ctx context.Context, staff, identity, channel string, items []Item) (int, error) {
	total, err := s.apply(ctx, items, +1, 0)
	if err != nil {
		return 0, err
	}
	total = pricing.Discounted(identity, total)

	err = s.record(ctx, store.Record{
		Flow: enum.FlowReturn, Staff: staff, Identity: identity, Channel: channel,
		Total: total, Items: toRecordItems(items),
	})
	return total, err
}

// Exchange validates the returned items, deducts the new items from front
// stock and returns the price difference. Old items are not restocked here:
// the prior return flow already did that. Each total is discounted and
// floored independently before subtraction.
func (s *Service) Exchange(ctx context.Context, staff, identity, channel, orderID string, oldItems, newItems []Item) (int, error) {
	if len(oldItems) == 0 || len(newItems) == 0 {
		return 0, ErrEmptyItems
	}

	oldTotal := 0
	for _, item := range oldItems {
		p, err := s.store.GetProductByName(ctx, item.Name)
		if err != nil {
			return 0, fmt.Errorf("returned item %s: %w", item.Name, err)
		}
		if (len(p.Variants) > 0 || item.Size != "") && !hasVariant(p, item.Size) {
			return 0, fmt.Errorf("returned item %s: %w: %s", item.Name, store.ErrNoSuchVariant, item.Size)
		}
		oldTotal += p.Price * item.Qty
	}

	newTotal, err := s.apply(ctx, newItems, -1, 0)
	if err != nil {
		return 0, err
	}

	oldTotal = pricing.Discounted(identity, oldTotal)
	newTotal = pricing.Discounted(identity, newTotal)
	diff := newTotal - oldTotal

	err = s.record(ctx, store.Record{
		Flow: enum.FlowExchange, Staff: staff, Identity: identity, Channel: channel,
		OrderID: orderID, Diff: diff,
		Items: toRecordItems(newItems), OldItems: toRecordItems(oldItems),
	})
	return diff, err
}

// Transfer moves stock from the warehouse to the front counter.
func (s *Service) Transfer(ctx context.Context, staff string, items []Item) error {
	if _, err := s.apply(ctx, items, +1, -1); err != nil {
		return err
	}
	return s.record(ctx, store.Record{
		Flow: enum.FlowTransfer, Staff: staff, Items: toRecordItems(items),
	})
}

// Restock adds received goods to the warehouse. The escheat flow reuses this
// endpoint to put leftover stock back.
func (s *Service) Restock(ctx context.Context, staff string, items []Item) error {
	if _, err := s.apply(ctx, items, 0, +1); err != nil {
		return err
	}
	return s.record(ctx, store.Record{
		Flow: enum.FlowRestock, Staff: staff, Items: toRecordItems(items),
	})
}

// Usage deducts front stock for internal or temporary use, keeping the
// reason on record.
func (s *Service) Usage(ctx context.Context, staff, reason string, items []Item) error {
	if _, err := s.apply(ctx, items, -1, 0); err != nil {
		return err
	}
	return s.record(ctx, store.Record{
		Flow: enum.FlowInternalUse, Staff: staff, Reason: reason, Items: toRecordItems(items),
	})
}

// LatestReturns serves the exchange wizard's record picker: the two most
// recent returns, newest first.
func (s *Service) LatestReturns(ctx context.Context) ([]store.Record, error) {
	return s.store.LatestReturns(ctx, 2)
}

// apply validates the items, applies frontSign/warehouseSign times each
// quantity atomically, and returns the undiscounted total at current prices.
func (s *Service) apply(ctx context.Context, items []Item, frontSign, warehouseSign int) (int, error) {
	if len(items) == 0 {
		return 0, ErrEmptyItems
	}

	total := 0
	adjustments := make([]store.StockAdjustment, 0, len(items))
	for _, item := range items {
		if item.Qty < 1 {
			return 0, fmt.Errorf("%s %s: quantity must be positive", item.Name, item.Size)
		}
		p, err := s.store.GetProductByName(ctx, item.Name)
		if err != nil {
			return 0, err
		}
		total += p.Price * item.Qty

		// Products without variants have no tracked stock to move.
		if len(p.Variants) == 0 && item.Size == "" {
			continue
		}
		if !hasVariant(p, item.Size) {
			return 0, fmt.Errorf("%s: %w: %s", item.Name, store.ErrNoSuchVariant, item.Size)
		}
		adjustments = append(adjustments, store.StockAdjustment{
			Name:      item.Name,
			Label:     item.Size,
			Front:     frontSign * item.Qty,
			Warehouse: warehouseSign * item.Qty,
		})
	}

	if err := s.store.ApplyAdjustments(ctx, adjustments); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) record(ctx context.Context, r store.Record) error {
	r.ID = uuid.New()
	r.CreatedAt = time.Now()
	return s.store.AppendRecord(ctx, r)
}

func hasVariant(p *store.Product, label string) bool {
	for _, v := range p.Variants {
		if v.Label == label {
			return true
		}
	}
	return false
}

func toRecordItems(items []Item) []store.RecordItem {
	out := make([]store.RecordItem, len(items))
	for i, item := range items {
		out[i] = store.RecordItem(item)
	}
	return out
}
