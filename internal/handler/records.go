package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusmerch-pos/api/internal/store"
)

// RecordService defines the service methods needed by the records handler.
type RecordService interface {
	LatestReturns(ctx context.Context) ([]store.Record, error)
}

// RecordHandler serves the return-record lookup used by the exchange flow.
type RecordHandler struct {
	svc RecordService
}

func NewRecordHandler(svc RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

func (h *RecordHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/relog-latest", h.LatestReturns)
}

type recordResponse struct {
	ID    string        `json:"id"`
	Time  string        `json:"time"`
	Items []itemPayload `json:"items"`
}

// LatestReturns returns the two most recent return records, newest first.
func (h *RecordHandler) LatestReturns(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.LatestReturns(r.Context())
	if err != nil {
		log.Printf("ERROR: latest returns: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]recordResponse, len(records))
	for i, rec := range records {
		items := make([]itemPayload, len(rec.Items))
		for j, item := range rec.Items {
			items[j] = itemPayload{Name: item.Name, Size: item.Size, Qty: item.Qty}
		}
		resp[i] = recordResponse{
			ID:    rec.ID.String(),
			Time:  rec.CreatedAt.Format("2006-01-02 15:04:05"),
			Items: items,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
