package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusmerch-pos/api/internal/handler"
	"github.com/campusmerch-pos/api/internal/middleware"
	"github.com/campusmerch-pos/api/internal/store"
)

const testSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	staff map[string]store.Staff
}

func newMockAuthStore(t *testing.T) *mockAuthStore {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &mockAuthStore{staff: map[string]store.Staff{
		"admin": {Account: "admin", Name: "Store Admin", HashedPassword: string(hashed)},
	}}
}

func (m *mockAuthStore) GetStaff(_ context.Context, account string) (*store.Staff, error) {
	st, ok := m.staff[account]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, account)
	}
	return &st, nil
}

func setupAuthRouter(t *testing.T) *chi.Mux {
	t.Helper()
	h := handler.NewAuthHandler(newMockAuthStore(t), testSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestLoginSuccess(t *testing.T) {
	r := setupAuthRouter(t)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"account":"admin","password":"password123"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "success" || resp["name"] != "Store Admin" {
		t.Errorf("body: %v", resp)
	}

	var sessionCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value == "" {
		t.Fatal("session cookie not set")
	}
	if !sessionCookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := setupAuthRouter(t)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"account":"admin","password":"wrong"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	resp := decodeBody(t, rr)
	if resp["status"] != "fail" || resp["message"] != "incorrect account or password" {
		t.Errorf("body: %v", resp)
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	r := setupAuthRouter(t)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"account":"ghost","password":"password123"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	// Unknown accounts answer exactly like wrong passwords.
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if resp := decodeBody(t, rr); resp["message"] != "incorrect account or password" {
		t.Errorf("body: %v", resp)
	}
}

func TestLoginMissingFields(t *testing.T) {
	r := setupAuthRouter(t)

	req := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"account":"admin"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	r := setupAuthRouter(t)

	req := httptest.NewRequest("POST", "/api/logout", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeBody(t, rr); resp["status"] != "logged_out" {
		t.Errorf("body: %v", resp)
	}

	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared")
	}
}

func TestCheckLogin(t *testing.T) {
	r := setupAuthRouter(t)

	// Log in first to obtain the cookie.
	loginReq := httptest.NewRequest("POST", "/api/login", strings.NewReader(`{"account":"admin","password":"password123"}`))
	loginRR := httptest.NewRecorder()
	r.ServeHTTP(loginRR, loginReq)

	req := httptest.NewRequest("GET", "/api/check-login", nil)
	for _, c := range loginRR.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	resp := decodeBody(t, rr)
	if resp["logged_in"] != true || resp["account"] != "admin" || resp["name"] != "Store Admin" {
		t.Errorf("body: %v", resp)
	}
}

func TestCheckLoginWithoutSession(t *testing.T) {
	r := setupAuthRouter(t)

	req := httptest.NewRequest("GET", "/api/check-login", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeBody(t, rr); resp["logged_in"] != false {
		t.Errorf("body: %v", resp)
	}
}
