// Package store defines the backend of record's persistence interface:
// products with per-variant front/warehouse counts, staff credentials, and
// the transaction record log that feeds /api/relog-latest.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNoSuchVariant     = errors.New("no such variant")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Variant is one size/style option with its two stock counts. Order matters:
// it is the catalog's native display order.
type Variant struct {
	Label     string
	Front     int
	Warehouse int
}

// Product is one catalog entry.
type Product struct {
	Key      string
	Name     string
	Price    int
	Category string
	Variants []Variant
}

// Staff is a login account.
type Staff struct {
	Account        string
	Name           string
	HashedPassword string
}

// RecordItem is one line of a transaction record.
type RecordItem struct {
	Name string
	Size string
	Qty  int
}

// Record is one completed transaction.
type Record struct {
	ID        uuid.UUID
	Flow      string
	Staff     string
	Identity  string
	Channel   string
	OrderID   string
	Giver     string
	Reason    string
	Total     int
	Diff      int
	Items     []RecordItem
	OldItems  []RecordItem // exchange only
	CreatedAt time.Time
}

// StockAdjustment is a delta against one variant's counts, identified by
// product name (transaction payloads carry names, not keys).
type StockAdjustment struct {
	Name      string
	Label     string
	Front     int
	Warehouse int
}

// Store is the persistence boundary. ApplyAdjustments is atomic: either every
// adjustment lands or none does, and any count dropping below zero fails the
// whole batch with ErrInsufficientStock.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProductByName(ctx context.Context, name string) (*Product, error)
	UpsertProduct(ctx context.Context, p Product) error
	ApplyAdjustments(ctx context.Context, adjustments []StockAdjustment) error

	GetStaff(ctx context.Context, account string) (*Staff, error)
	CreateStaff(ctx context.Context, s Staff) error

	AppendRecord(ctx context.Context, r Record) error
	LatestReturns(ctx context.Context, limit int) ([]Record, error)
}
