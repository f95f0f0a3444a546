package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/service"
	"github.com/campusmerch-pos/api/internal/store"
	"github.com/campusmerch-pos/api/internal/store/memory"
)

func seededService(t *testing.T) (*service.Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	ctx := context.Background()

	products := []store.Product{
		{
			Key: "hoodie-classic", Name: "Classic Hoodie", Price: 1200, Category: "apparel",
			Variants: []store.Variant{
				{Label: "M", Front: 6, Warehouse: 12},
				{Label: "L", Front: 5, Warehouse: 8},
			},
		},
		{
			Key: "tee-crest", Name: "Crest Tee", Price: 450, Category: "apparel",
			Variants: []store.Variant{
				{Label: "M", Front: 10, Warehouse: 24},
			},
		},
		{Key: "sticker-pack", Name: "Sticker Pack", Price: 80, Category: "accessories"},
	}
	for _, p := range products {
		if err := st.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("seed %s: %v", p.Key, err)
		}
	}
	return service.New(st), st
}

func stockOf(t *testing.T, st *memory.Store, name, label string) (front, warehouse int) {
	t.Helper()
	p, err := st.GetProductByName(context.Background(), name)
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	for _, v := range p.Variants {
		if v.Label == label {
			return v.Front, v.Warehouse
		}
	}
	t.Fatalf("variant %s %s not found", name, label)
	return 0, 0
}

func TestSaleDeductsFrontAndDiscounts(t *testing.T) {
	svc, st := seededService(t)
	ctx := context.Background()

	total, err := svc.Sale(ctx, "Store Admin", enum.IdentityStudent, enum.ChannelInStore, "ORD-1",
		[]service.Item{{Name: "Classic Hoodie", Size: "M", Qty: 2}})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	// 2*1200 = 2400, student discount -> 2160.
	if total != 2160 {
		t.Errorf("total: got %d, want 2160", total)
	}
	front, warehouse := stockOf(t, st, "Classic Hoodie", "M")
	if front != 4 || warehouse != 12 {
		t.Errorf("stock: got front %d warehouse %d, want 4/12", front, warehouse)
	}
}

func TestSaleInsufficientStockIsAtomic(t *testing.T) {
	svc, st := seededService(t)
	ctx := context.Background()

	_, err := svc.Sale(ctx, "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-2",
		[]service.Item{
			{Name: "Crest Tee", Size: "M", Qty: 1},
			{Name: "Classic Hoodie", Size: "M", Qty: 99},
		})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
	// The valid line must not have been applied either.
	if front, _ := stockOf(t, st, "Crest Tee", "M"); front != 10 {
		t.Errorf("tee front stock: got %d, want 10 (no partial apply)", front)
	}
}

func TestSaleUnknownProduct(t *testing.T) {
	svc, _ := seededService(t)
	_, err := svc.Sale(context.Background(), "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-3",
		[]service.Item{{Name: "Ghost Product", Size: "M", Qty: 1}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSaleUnknownVariant(t *testing.T) {
	svc, _ := seededService(t)
	_, err := svc.Sale(context.Background(), "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-4",
		[]service.Item{{Name: "Crest Tee", Size: "5XL", Qty: 1}})
	if !errors.Is(err, store.ErrNoSuchVariant) {
		t.Fatalf("got %v, want ErrNoSuchVariant", err)
	}
}

func TestSaleEmptyItems(t *testing.T) {
	svc, _ := seededService(t)
	_, err := svc.Sale(context.Background(), "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-5", nil)
	if !errors.Is(err, service.ErrEmptyItems) {
		t.Fatalf("got %v, want ErrEmptyItems", err)
	}
}

func TestSaleNoVariantProductSkipsStockMovement(t *testing.T) {
	svc, _ := seededService(t)
	total, err := svc.Sale(context.Background(), "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-6",
		[]service.Item{{Name: "Sticker Pack", Size: "", Qty: 3}})
	if err != nil {
		t.Fatalf("sale: %v", err)
	}
	if total != 240 {
		t.Errorf("total: got %d, want 240", total)
	}
}

func TestGiftDeductsFront(t *testing.T) {
	svc, st := seededService(t)
	if err := svc.Gift(context.Background(), "Store Admin", "Alumni Office",
		[]service.Item{{Name: "Crest Tee", Size: "M", Qty: 2}}); err != nil {
		t.Fatalf("gift: %v", err)
	}
	if front, _ := stockOf(t, st, "Crest Tee", "M"); front != 8 {
		t.Errorf("front stock: got %d, want 8", front)
	}
}

func TestReturnAddsFrontStock(t *testing.T) {
	svc, st := seededService(t)
	total, err := svc.Return(context.Background(), "Store Admin", enum.IdentityAlumni, enum.ChannelOnline,
		[]service.Item{{Name: "Classic Hoodie", Size: "L", Qty: 1}})
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	// 1200, alumni discount -> 1080.
	if total != 1080 {
		t.Errorf("total: got %d, want 1080", total)
	}
	if front, _ := stockOf(t, st, "Classic Hoodie", "L"); front != 6 {
		t.Errorf("front stock: got %d, want 6", front)
	}
}

func TestExchangeDeductsOnlyNewItems(t *testing.T) {
	svc, st := seededService(t)
	ctx := context.Background()

	diff, err := svc.Exchange(ctx, "Store Admin", enum.IdentityStudent, enum.ChannelInStore, "ORD-EX-1",
		[]service.Item{{Name: "Crest Tee", Size: "M", Qty: 1}},
		[]service.Item{{Name: "Classic Hoodie", Size: "M", Qty: 1}})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	// Old: 450*0.9=405. New: 1200*0.9=1080. Diff 675.
	if diff != 675 {
		t.Errorf("diff: got %d, want 675", diff)
	}

	// Old item stock untouched (the prior return flow already restocked it).
	if front, _ := stockOf(t, st, "Crest Tee", "M"); front != 10 {
		t.Errorf("old item front stock: got %d, want 10", front)
	}
	if front, _ := stockOf(t, st, "Classic Hoodie", "M"); front != 5 {
		t.Errorf("new item front stock: got %d, want 5", front)
	}
}

func TestExchangeValidatesOldItems(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	_, err := svc.Exchange(ctx, "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-EX-2",
		[]service.Item{{Name: "Ghost Product", Size: "M", Qty: 1}},
		[]service.Item{{Name: "Crest Tee", Size: "M", Qty: 1}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown old product: got %v, want ErrNotFound", err)
	}

	_, err = svc.Exchange(ctx, "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-EX-3",
		[]service.Item{{Name: "Crest Tee", Size: "5XL", Qty: 1}},
		[]service.Item{{Name: "Classic Hoodie", Size: "M", Qty: 1}})
	if !errors.Is(err, store.ErrNoSuchVariant) {
		t.Fatalf("unknown old variant: got %v, want ErrNoSuchVariant", err)
	}

	_, err = svc.Exchange(ctx, "Store Admin", enum.IdentityOther, enum.ChannelInStore, "ORD-EX-4",
		nil, []service.Item{{Name: "Crest Tee", Size: "M", Qty: 1}})
	if !errors.Is(err, service.ErrEmptyItems) {
		t.Fatalf("empty old items: got %v, want ErrEmptyItems", err)
	}
}

func TestTransferMovesWarehouseToFront(t *testing.T) {
	svc, st := seededService(t)
	if err := svc.Transfer(context.Background(), "Store Admin",
		[]service.Item{{Name: "Classic Hoodie", Size: "M", Qty: 4}}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	front, warehouse := stockOf(t, st, "Classic Hoodie", "M")
	if front != 10 || warehouse != 8 {
		t.Errorf("stock: got front %d warehouse %d, want 10/8", front, warehouse)
	}
}

func TestTransferInsufficientWarehouse(t *testing.T) {
	svc, _ := seededService(t)
	err := svc.Transfer(context.Background(), "Store Admin",
		[]service.Item{{Name: "Classic Hoodie", Size: "M", Qty: 99}})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
}

func TestRestockAddsWarehouse(t *testing.T) {
	svc, st := seededService(t)
	if err := svc.Restock(context.Background(), "Store Admin",
		[]service.Item{{Name: "Crest Tee", Size: "M", Qty: 30}}); err != nil {
		t.Fatalf("restock: %v", err)
	}
	front, warehouse := stockOf(t, st, "Crest Tee", "M")
	if front != 10 || warehouse != 54 {
		t.Errorf("stock: got front %d warehouse %d, want 10/54", front, warehouse)
	}
}

func TestUsageDeductsFront(t *testing.T) {
	svc, st := seededService(t)
	if err := svc.Usage(context.Background(), "Store Admin", "display sample",
		[]service.Item{{Name: "Crest Tee", Size: "M", Qty: 1}}); err != nil {
		t.Fatalf("usage: %v", err)
	}
	if front, _ := stockOf(t, st, "Crest Tee", "M"); front != 9 {
		t.Errorf("front stock: got %d, want 9", front)
	}
}

func TestLatestReturnsLimitAndOrder(t *testing.T) {
	svc, _ := seededService(t)
	ctx := context.Background()

	names := []string{"Crest Tee", "Crest Tee", "Classic Hoodie"}
	sizes := []string{"M", "M", "L"}
	for i := range names {
		if _, err := svc.Return(ctx, "Store Admin", enum.IdentityOther, enum.ChannelInStore,
			[]service.Item{{Name: names[i], Size: sizes[i], Qty: 1}}); err != nil {
			t.Fatalf("return %d: %v", i, err)
		}
	}

	records, err := svc.LatestReturns(ctx)
	if err != nil {
		t.Fatalf("latest returns: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	// Newest first: the hoodie return came last.
	if records[0].Items[0].Name != "Classic Hoodie" {
		t.Errorf("newest record: got %q items %+v", records[0].Items[0].Name, records[0].Items)
	}
	for _, r := range records {
		if r.Flow != enum.FlowReturn {
			t.Errorf("flow: got %q, want return", r.Flow)
		}
	}
}
