package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusmerch-pos/api/internal/auth"
	"github.com/campusmerch-pos/api/internal/middleware"
	"github.com/campusmerch-pos/api/internal/store"
)

// AuthStore defines the store methods needed by auth handlers.
// Satisfied by every Store implementation; narrow interface for testability.
type AuthStore interface {
	GetStaff(ctx context.Context, account string) (*store.Staff, error)
}

// AuthHandler handles login, logout and the session probe.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
}

func NewAuthHandler(store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret}
}

// RegisterRoutes registers the public auth endpoints.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/login", h.Login)
	r.Post("/api/logout", h.Logout)
	r.Get("/api/check-login", h.CheckLogin)
}

type loginRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

// Login verifies the account and password and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "invalid request body"})
		return
	}
	if req.Account == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "fail", "message": "account and password are required"})
		return
	}

	staff, err := h.store.GetStaff(r.Context(), req.Account)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "fail", "message": "incorrect account or password"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "fail", "message": "internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.HashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "fail", "message": "incorrect account or password"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, staff.Account, staff.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "fail", "message": "internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "name": staff.Name})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// CheckLogin reports the session state without requiring authentication.
func (h *AuthHandler) CheckLogin(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookie)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"logged_in": false})
		return
	}
	claims, err := auth.ValidateToken(h.jwtSecret, cookie.Value)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"logged_in": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logged_in": true,
		"account":   claims.Account,
		"name":      claims.Name,
	})
}
