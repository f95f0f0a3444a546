// Package wizard drives the multi-step transaction flows as explicit state
// machines: one generic step machine parameterized by a per-flow
// configuration (steps, validation, payload builder, endpoint). Each wizard
// owns a fresh draft; the cart is snapshotted by value at the flow's snapshot
// step, so later cart mutation cannot corrupt an in-flight draft.
package wizard

import (
	"context"
	"errors"
	"log"

	"github.com/campusmerch-pos/api/internal/cart"
	"github.com/campusmerch-pos/api/internal/catalog"
	"github.com/campusmerch-pos/api/internal/client"
	"github.com/campusmerch-pos/api/internal/pricing"
)

// Validation errors keep the wizard on the current step with no draft
// mutation and no network call.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrIdentityRequired = errors.New("an identity category must be selected")
	ErrChannelRequired  = errors.New("a channel must be selected")
	ErrOrderIDRequired  = errors.New("order id must not be empty")
	ErrGiverRequired    = errors.New("giver name must not be empty")
	ErrReasonRequired   = errors.New("reason must not be empty")
	ErrRecordRequired   = errors.New("a return record must be selected")
	ErrQuantityCount    = errors.New("a quantity is required for every cart line")
	ErrFinished         = errors.New("wizard already finished")
)

// Backend is the submission surface of the API client used by the flows.
type Backend interface {
	LatestReturns(ctx context.Context) ([]client.ReturnRecord, error)
	SubmitSale(ctx context.Context, req client.SaleRequest) (*client.SubmitResult, error)
	SubmitGift(ctx context.Context, req client.GiftRequest) (*client.SubmitResult, error)
	SubmitReturn(ctx context.Context, req client.ReturnRequest) (*client.SubmitResult, error)
	SubmitExchange(ctx context.Context, req client.ExchangeRequest) (*client.SubmitResult, error)
	SubmitTransfer(ctx context.Context, req client.ItemsRequest) (*client.SubmitResult, error)
	SubmitRestock(ctx context.Context, req client.ItemsRequest) (*client.SubmitResult, error)
	SubmitUsage(ctx context.Context, req client.UsageRequest) (*client.SubmitResult, error)
}

// Deps is the session state a wizard operates on. All of it is owned by the
// caller; the package keeps no globals.
type Deps struct {
	Catalog *catalog.Cache
	Cart    *cart.Cart
	Backend Backend
}

// Input carries one step's worth of user input. Only the fields the current
// step reads are consulted.
type Input struct {
	Identity   string
	Channel    string
	Text       string // order id, giver name or reason, depending on the step
	Record     int    // index into Records(); -1 means none selected
	Quantities []int  // per-line re-entry for restock/escheat
}

// Draft is the transient per-flow state. Item slices are deep copies taken
// from the cart at the snapshot step.
type Draft struct {
	Identity string
	Channel  string
	OrderID  string
	Giver    string
	Reason   string
	Items    []client.Item
	OldItems []client.Item
	Delta    pricing.Delta
}

// Step is a named flow step. Run validates the input and mutates the draft;
// returning an error keeps the wizard on the step.
type Step struct {
	Name string
	Run  func(ctx context.Context, w *Wizard, in Input) error
}

// Flow is the per-flow configuration of the generic machine.
type Flow struct {
	Name   string
	Steps  []Step
	Submit func(ctx context.Context, w *Wizard) (*client.SubmitResult, error)
}

// Wizard drives one flow invocation. Create a fresh Wizard per invocation;
// the draft is discarded when the wizard finishes, whatever the outcome.
type Wizard struct {
	flow      Flow
	deps      Deps
	draft     Draft
	records   []client.ReturnRecord
	step      int
	done      bool
	cancelled bool

	// Result holds the server's success payload once the wizard completes.
	Result *client.SubmitResult
}

func newWizard(flow Flow, deps Deps) *Wizard {
	return &Wizard{flow: flow, deps: deps, draft: Draft{}}
}

// Flow returns the flow name.
func (w *Wizard) Flow() string { return w.flow.Name }

// StepName returns the current step's name, or "" once finished.
func (w *Wizard) StepName() string {
	if w.done || w.cancelled || w.step >= len(w.flow.Steps) {
		return ""
	}
	return w.flow.Steps[w.step].Name
}

// Draft returns a copy of the current draft for display.
func (w *Wizard) Draft() Draft { return w.draft }

// Done reports whether the wizard finished (submitted or cancelled).
func (w *Wizard) Done() bool { return w.done || w.cancelled }

// Cancel aborts the flow with no side effects: the draft is discarded and
// the cart is untouched.
func (w *Wizard) Cancel() {
	w.cancelled = true
}

// Advance runs the current step against in. A validation error keeps the
// wizard on the step. After the last step it submits: on success the cart is
// cleared and the catalog refreshed; on failure the wizard still finishes
// (the attempt is terminal) but the cart is preserved for an explicit retry.
func (w *Wizard) Advance(ctx context.Context, in Input) error {
	if w.Done() {
		return ErrFinished
	}

	if err := w.flow.Steps[w.step].Run(ctx, w, in); err != nil {
		return err
	}
	w.step++
	if w.step < len(w.flow.Steps) {
		return nil
	}

	res, err := w.flow.Submit(ctx, w)
	w.done = true
	if err != nil {
		return err
	}
	w.Result = res

	w.deps.Cart.Clear()
	if err := w.deps.Catalog.Refresh(ctx); err != nil {
		// The transaction itself succeeded; stale stock numbers fix
		// themselves on the next refresh.
		log.Printf("ERROR: catalog refresh after %s: %v", w.flow.Name, err)
	}
	return nil
}

// Records returns the prior return records for the exchange flow, fetching
// them on first use.
func (w *Wizard) Records(ctx context.Context) ([]client.ReturnRecord, error) {
	if w.records == nil {
		records, err := w.deps.Backend.LatestReturns(ctx)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []client.ReturnRecord{}
		}
		w.records = records
	}
	return w.records, nil
}

// snapshotCart guards against an empty cart and deep-copies it into the
// draft's item list.
func snapshotCart(w *Wizard) error {
	if w.deps.Cart.Len() == 0 {
		return ErrEmptyCart
	}
	w.draft.Items = w.deps.Cart.Snapshot()
	return nil
}
