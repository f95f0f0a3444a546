package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusmerch-pos/api/internal/cache"
	"github.com/campusmerch-pos/api/internal/middleware"
	"github.com/campusmerch-pos/api/internal/service"
	"github.com/campusmerch-pos/api/internal/store"
	"github.com/campusmerch-pos/api/internal/ws"
)

// TransactionService defines the service methods needed by transaction
// handlers. Satisfied by *service.Service.
type TransactionService interface {
	Sale(ctx context.Context, staff, identity, channel, orderID string, items []service.Item) (int, error)
	Gift(ctx context.Context, staff, giver string, items []service.Item) error
	Return(ctx context.Context, staff, identity, channel string, items []service.Item) (int, error)
	Exchange(ctx context.Context, staff, identity, channel, orderID string, oldItems, newItems []service.Item) (int, error)
	Transfer(ctx context.Context, staff string, items []service.Item) error
	Restock(ctx context.Context, staff string, items []service.Item) error
	Usage(ctx context.Context, staff, reason string, items []service.Item) error
}

// TransactionHandler handles every inventory-affecting submission endpoint.
type TransactionHandler struct {
	svc   TransactionService
	cache cache.Cache
	hub   *ws.Hub
}

func NewTransactionHandler(svc TransactionService, c cache.Cache, hub *ws.Hub) *TransactionHandler {
	return &TransactionHandler{svc: svc, cache: c, hub: hub}
}

func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/sale", h.Sale)
	r.Post("/api/gift", h.Gift)
	r.Post("/api/return", h.Return)
	r.Post("/api/exchange", h.Exchange)
	r.Post("/api/transfer", h.Transfer)
	r.Post("/api/restock", h.Restock)
	r.Post("/api/usage", h.Usage)
}

// --- Request types ---

type saleRequest struct {
	Identity string        `json:"identity"`
	Channel  string        `json:"channel"`
	OrderID  string        `json:"order_id"`
	Items    []itemPayload `json:"items"`
}

type giftRequest struct {
	Giver string        `json:"giver"`
	Items []itemPayload `json:"items"`
}

type returnRequest struct {
	Identity string        `json:"identity"`
	Channel  string        `json:"channel"`
	Items    []itemPayload `json:"items"`
}

type exchangeRequest struct {
	Identity string        `json:"identity"`
	Channel  string        `json:"channel"`
	OrderID  string        `json:"order_id"`
	OldItems []itemPayload `json:"old_items"`
	NewItems []itemPayload `json:"new_items"`
}

type itemsRequest struct {
	Items []itemPayload `json:"items"`
}

type usageRequest struct {
	Reason string        `json:"reason"`
	Items  []itemPayload `json:"items"`
}

// --- Handlers ---

func (h *TransactionHandler) Sale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}

	total, err := h.svc.Sale(r.Context(), staff, req.Identity, req.Channel, req.OrderID, toServiceItems(req.Items))
	if err != nil {
		h.fail(w, "sale", err)
		return
	}
	h.succeed(w, r, "sale", staff, map[string]any{"status": "success", "total": total})
}

func (h *TransactionHandler) Gift(w http.ResponseWriter, r *http.Request) {
	var req giftRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	if req.Giver == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "giver is required"})
		return
	}

	if err := h.svc.Gift(r.Context(), staff, req.Giver, toServiceItems(req.Items)); err != nil {
		h.fail(w, "gift", err)
		return
	}
	h.succeed(w, r, "gift", staff, map[string]any{"status": "success"})
}

func (h *TransactionHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}

	total, err := h.svc.Return(r.Context(), staff, req.Identity, req.Channel, toServiceItems(req.Items))
	if err != nil {
		h.fail(w, "return", err)
		return
	}
	h.succeed(w, r, "return", staff, map[string]any{"status": "success", "total": total})
}

func (h *TransactionHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}

	diff, err := h.svc.Exchange(r.Context(), staff, req.Identity, req.Channel, req.OrderID,
		toServiceItems(req.OldItems), toServiceItems(req.NewItems))
	if err != nil {
		h.fail(w, "exchange", err)
		return
	}
	h.succeed(w, r, "exchange", staff, map[string]any{"status": "success", "diff": diff})
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}

	if err := h.svc.Transfer(r.Context(), staff, toServiceItems(req.Items)); err != nil {
		h.fail(w, "transfer", err)
		return
	}
	h.succeed(w, r, "transfer", staff, map[string]any{"status": "success"})
}

func (h *TransactionHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}

	if err := h.svc.Restock(r.Context(), staff, toServiceItems(req.Items)); err != nil {
		h.fail(w, "restock", err)
		return
	}
	h.succeed(w, r, "restock", staff, map[string]any{"status": "success"})
}

func (h *TransactionHandler) Usage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	staff, ok := h.begin(w, r, &req)
	if !ok {
		return
	}
	if req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reason is required"})
		return
	}

	if err := h.svc.Usage(r.Context(), staff, req.Reason, toServiceItems(req.Items)); err != nil {
		h.fail(w, "usage", err)
		return
	}
	h.succeed(w, r, "usage", staff, map[string]any{"status": "success"})
}

// --- Helpers ---

// begin decodes the request body and resolves the authenticated staff name.
func (h *TransactionHandler) begin(w http.ResponseWriter, r *http.Request, req any) (string, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not logged in"})
		return "", false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", false
	}
	return claims.Name, true
}

func (h *TransactionHandler) fail(w http.ResponseWriter, flow string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrNoSuchVariant),
		errors.Is(err, store.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", flow, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// succeed invalidates the products cache, announces the stock change and
// writes the success envelope.
func (h *TransactionHandler) succeed(w http.ResponseWriter, r *http.Request, flow, staff string, body map[string]any) {
	if err := h.cache.Invalidate(r.Context(), cache.ProductsKey); err != nil {
		log.Printf("ERROR: invalidate products cache: %v", err)
	}
	if h.hub != nil {
		h.hub.BroadcastStockUpdate(ws.StockUpdate{Flow: flow, Staff: staff})
	}
	writeJSON(w, http.StatusOK, body)
}

func toServiceItems(items []itemPayload) []service.Item {
	out := make([]service.Item, len(items))
	for i, item := range items {
		out[i] = service.Item{Name: item.Name, Size: item.Size, Qty: item.Qty}
	}
	return out
}
