package wizard

import (
	"context"
	"fmt"

	"github.com/campusmerch-pos/api/internal/cart"
	"github.com/campusmerch-pos/api/internal/client"
	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/pricing"
)

// Step names shared across flows.
const (
	StepIdentityChannel = "identity-channel"
	StepConfirmItems    = "confirm-items"
	StepOrderID         = "order-id"
	StepGiver           = "giver"
	StepSelectRecord    = "select-record"
	StepConfirmDelta    = "confirm-delta"
	StepQuantities      = "quantities"
	StepReason          = "reason"
)

func identityChannelStep(_ context.Context, w *Wizard, in Input) error {
	if !enum.ValidIdentity(in.Identity) {
		return ErrIdentityRequired
	}
	if !enum.ValidChannel(in.Channel) {
		return ErrChannelRequired
	}
	w.draft.Identity = in.Identity
	w.draft.Channel = in.Channel
	return nil
}

func confirmItemsStep(_ context.Context, w *Wizard, _ Input) error {
	return snapshotCart(w)
}

func orderIDStep(_ context.Context, w *Wizard, in Input) error {
	if in.Text == "" {
		return ErrOrderIDRequired
	}
	w.draft.OrderID = in.Text
	return nil
}

// NewSale builds the sale wizard: identity+channel, confirm items, order id.
func NewSale(deps Deps) *Wizard {
	return newWizard(Flow{
		Name: enum.FlowSale,
		Steps: []Step{
			{Name: StepIdentityChannel, Run: identityChannelStep},
			{Name: StepConfirmItems, Run: confirmItemsStep},
			{Name: StepOrderID, Run: orderIDStep},
		},
		Submit: func(ctx context.Context, w *Wizard) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitSale(ctx, client.SaleRequest{
				Identity: w.draft.Identity,
				Channel:  w.draft.Channel,
				OrderID:  w.draft.OrderID,
				Items:    w.draft.Items,
			})
		},
	}, deps)
}

// NewGift builds the gift wizard: confirm items, giver name.
func NewGift(deps Deps) *Wizard {
	return newWizard(Flow{
		Name: enum.FlowGift,
		Steps: []Step{
			{Name: StepConfirmItems, Run: confirmItemsStep},
			{Name: StepGiver, Run: func(_ context.Context, w *Wizard, in Input) error {
				if in.Text == "" {
					return ErrGiverRequired
				}
				w.draft.Giver = in.Text
				return nil
			}},
		},
		Submit: func(ctx context.Context, w *Wizard) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitGift(ctx, client.GiftRequest{
				Giver: w.draft.Giver,
				Items: w.draft.Items,
			})
		},
	}, deps)
}

// NewReturn builds the return wizard: identity+channel (cart must already be
// non-empty), confirm items.
func NewReturn(deps Deps) *Wizard {
	return newWizard(Flow{
		Name: enum.FlowReturn,
		Steps: []Step{
			{Name: StepIdentityChannel, Run: func(ctx context.Context, w *Wizard, in Input) error {
				if w.deps.Cart.Len() == 0 {
					return ErrEmptyCart
				}
				return identityChannelStep(ctx, w, in)
			}},
			{Name: StepConfirmItems, Run: confirmItemsStep},
		},
		Submit: func(ctx context.Context, w *Wizard) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitReturn(ctx, client.ReturnRequest{
				Identity: w.draft.Identity,
				Channel:  w.draft.Channel,
				Items:    w.draft.Items,
			})
		},
	}, deps)
}

// NewExchange builds the exchange wizard: identity+channel, select a prior
// return record, confirm old vs new items with the computed price delta,
// order id.
func NewExchange(deps Deps) *Wizard {
	return newWizard(Flow{
		Name: enum.FlowExchange,
		Steps: []Step{
			{Name: StepIdentityChannel, Run: identityChannelStep},
			{Name: StepSelectRecord, Run: func(ctx context.Context, w *Wizard, in Input) error {
				records, err := w.Records(ctx)
				if err != nil {
					return err
				}
				if in.Record < 0 || in.Record >= len(records) {
					return ErrRecordRequired
				}
				w.draft.OldItems = append([]client.Item(nil), records[in.Record].Items...)
				return nil
			}},
			{Name: StepConfirmDelta, Run: func(_ context.Context, w *Wizard, _ Input) error {
				if err := snapshotCart(w); err != nil {
					return err
				}
				w.draft.Delta = pricing.ExchangeDelta(
					w.deps.Catalog.PriceByName,
					w.draft.Identity,
					w.draft.OldItems,
					w.draft.Items,
				)
				return nil
			}},
			{Name: StepOrderID, Run: orderIDStep},
		},
		Submit: func(ctx context.Context, w *Wizard) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitExchange(ctx, client.ExchangeRequest{
				Identity: w.draft.Identity,
				Channel:  w.draft.Channel,
				OrderID:  w.draft.OrderID,
				OldItems: w.draft.OldItems,
				NewItems: w.draft.Items,
			})
		},
	}, deps)
}

// NewTransfer builds the transfer wizard: confirm items only.
func NewTransfer(deps Deps) *Wizard {
	return newWizard(Flow{
		Name: enum.FlowTransfer,
		Steps: []Step{
			{Name: StepConfirmItems, Run: confirmItemsStep},
		},
		Submit: submitItems(func(ctx context.Context, w *Wizard, req client.ItemsRequest) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitTransfer(ctx, req)
		}),
	}, deps)
}

// NewRestock builds the restock wizard: per-line quantity re-entry, confirm.
func NewRestock(deps Deps) *Wizard {
	return newWizard(quantityReentryFlow(enum.FlowRestock), deps)
}

// NewEscheat builds the return-to-stock wizard. Same steps and endpoint as
// restock; only the flow name differs.
func NewEscheat(deps Deps) *Wizard {
	return newWizard(quantityReentryFlow(enum.FlowEscheat), deps)
}

func quantityReentryFlow(name string) Flow {
	return Flow{
		Name: name,
		Steps: []Step{
			{Name: StepQuantities, Run: quantitiesStep},
			{Name: StepConfirmItems, Run: confirmItemsStep},
		},
		Submit: submitItems(func(ctx context.Context, w *Wizard, req client.ItemsRequest) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitRestock(ctx, req)
		}),
	}
}

// quantitiesStep overwrites the cart quantities with re-entered values. All
// values must be positive integers and one must be supplied per line.
func quantitiesStep(_ context.Context, w *Wizard, in Input) error {
	n := w.deps.Cart.Len()
	if n == 0 {
		return ErrEmptyCart
	}
	if len(in.Quantities) != n {
		return fmt.Errorf("%w: got %d for %d lines", ErrQuantityCount, len(in.Quantities), n)
	}
	for _, qty := range in.Quantities {
		if qty < 1 {
			return fmt.Errorf("%w: %d", cart.ErrInvalidQuantity, qty)
		}
	}
	for i, qty := range in.Quantities {
		if err := w.deps.Cart.SetQuantity(i, qty); err != nil {
			return err
		}
	}
	return nil
}

// NewInternalUse builds the internal-use wizard: confirm items, reason.
func NewInternalUse(deps Deps) *Wizard {
	return newWizard(usageFlow(enum.FlowInternalUse), deps)
}

// NewTemporaryUse builds the temporary-use wizard. Same steps and endpoint
// as internal use.
func NewTemporaryUse(deps Deps) *Wizard {
	return newWizard(usageFlow(enum.FlowTemporaryUse), deps)
}

func usageFlow(name string) Flow {
	return Flow{
		Name: name,
		Steps: []Step{
			{Name: StepConfirmItems, Run: confirmItemsStep},
			{Name: StepReason, Run: func(_ context.Context, w *Wizard, in Input) error {
				if in.Text == "" {
					return ErrReasonRequired
				}
				w.draft.Reason = in.Text
				return nil
			}},
		},
		Submit: func(ctx context.Context, w *Wizard) (*client.SubmitResult, error) {
			return w.deps.Backend.SubmitUsage(ctx, client.UsageRequest{
				Reason: w.draft.Reason,
				Items:  w.draft.Items,
			})
		},
	}
}

func submitItems(send func(ctx context.Context, w *Wizard, req client.ItemsRequest) (*client.SubmitResult, error)) func(context.Context, *Wizard) (*client.SubmitResult, error) {
	return func(ctx context.Context, w *Wizard) (*client.SubmitResult, error) {
		return send(ctx, w, client.ItemsRequest{Items: w.draft.Items})
	}
}
