package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusmerch-pos/api/internal/enum"
	"github.com/campusmerch-pos/api/internal/handler"
	"github.com/campusmerch-pos/api/internal/store"
)

type mockRecordService struct {
	records []store.Record
	err     error
}

func (m *mockRecordService) LatestReturns(_ context.Context) ([]store.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func setupRecordRouter(svc *mockRecordService) *chi.Mux {
	h := handler.NewRecordHandler(svc)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestLatestReturnsFormatting(t *testing.T) {
	id := uuid.New()
	svc := &mockRecordService{records: []store.Record{
		{
			ID:        id,
			Flow:      enum.FlowReturn,
			CreatedAt: time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC),
			Items: []store.RecordItem{
				{Name: "Crest Tee", Size: "M", Qty: 1},
				{Name: "Classic Hoodie", Size: "L", Qty: 2},
			},
		},
	}}
	r := setupRecordRouter(svc)

	req := httptest.NewRequest("GET", "/api/relog-latest", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}

	var resp []struct {
		ID    string `json:"id"`
		Time  string `json:"time"`
		Items []struct {
			Name string `json:"name"`
			Size string `json:"size"`
			Qty  int    `json:"qty"`
		} `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("records: got %d, want 1", len(resp))
	}
	if resp[0].ID != id.String() {
		t.Errorf("id: got %q", resp[0].ID)
	}
	if resp[0].Time != "2026-08-29 10:30:00" {
		t.Errorf("time: got %q", resp[0].Time)
	}
	if len(resp[0].Items) != 2 || resp[0].Items[1].Qty != 2 {
		t.Errorf("items: %+v", resp[0].Items)
	}
}

func TestLatestReturnsEmpty(t *testing.T) {
	r := setupRecordRouter(&mockRecordService{})

	req := httptest.NewRequest("GET", "/api/relog-latest", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var resp []any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 0 {
		t.Errorf("records: got %v, want empty array", resp)
	}
}

func TestLatestReturnsServiceError(t *testing.T) {
	r := setupRecordRouter(&mockRecordService{err: errors.New("boom")})

	req := httptest.NewRequest("GET", "/api/relog-latest", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
