package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// ErrTransport marks connectivity-level failures: network errors, non-2xx
// responses without a JSON body, and malformed bodies. Application-level
// failures (the server answered, but with status != "success") are reported
// as *APIError instead.
var ErrTransport = errors.New("transport error")

// APIError is an application-level failure surfaced by the backend.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// envelope is the common response shape: a status field with "success" as the
// only recognized success sentinel, plus flow-specific extras.
type envelope struct {
	Status   string `json:"status"`
	Error    string `json:"error"`
	Message  string `json:"message"`
	Name     string `json:"name"`
	LoggedIn bool   `json:"logged_in"`
	Total    int    `json:"total"`
	Diff     int    `json:"diff"`
}

// Client talks to the POS backend. The session cookie set by /api/login is
// held in an in-memory jar. Every call takes a context and the underlying
// http.Client carries a timeout, so a hung request can always be cancelled.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the backend at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}
}

// --- Session gate ---

// Login authenticates and returns the staff display name.
func (c *Client) Login(ctx context.Context, account, password string) (string, error) {
	body := map[string]string{"account": account, "password": password}
	env, err := c.post(ctx, "/api/login", body)
	if err != nil {
		return "", err
	}
	return env.Name, nil
}

// Logout ends the session. The backend answers status "logged_out".
func (c *Client) Logout(ctx context.Context) error {
	env, err := c.do(ctx, http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	if env.Status != "logged_out" {
		return &APIError{Message: env.Error}
	}
	return nil
}

// CheckLogin reports whether the session is authenticated and, if so, the
// staff display name.
func (c *Client) CheckLogin(ctx context.Context) (bool, string, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/check-login", nil)
	if err != nil {
		return false, "", err
	}
	return env.LoggedIn, env.Name, nil
}

// --- Catalog and records ---

// Products fetches the full product set, keyed by opaque product key.
func (c *Client) Products(ctx context.Context) (map[string]Product, error) {
	var products map[string]Product
	if err := c.getJSON(ctx, "/api/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// LatestReturns fetches the most recent return records for the exchange flow.
func (c *Client) LatestReturns(ctx context.Context) ([]ReturnRecord, error) {
	var records []ReturnRecord
	if err := c.getJSON(ctx, "/api/relog-latest", &records); err != nil {
		return nil, err
	}
	return records, nil
}

// --- Submission endpoints ---

func (c *Client) SubmitSale(ctx context.Context, req SaleRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/sale", req)
}

func (c *Client) SubmitGift(ctx context.Context, req GiftRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/gift", req)
}

func (c *Client) SubmitReturn(ctx context.Context, req ReturnRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/return", req)
}

func (c *Client) SubmitExchange(ctx context.Context, req ExchangeRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/exchange", req)
}

func (c *Client) SubmitTransfer(ctx context.Context, req ItemsRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/transfer", req)
}

func (c *Client) SubmitRestock(ctx context.Context, req ItemsRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/restock", req)
}

func (c *Client) SubmitUsage(ctx context.Context, req UsageRequest) (*SubmitResult, error) {
	return c.submit(ctx, "/api/usage", req)
}

// --- Internals ---

func (c *Client) submit(ctx context.Context, path string, body any) (*SubmitResult, error) {
	env, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Total: env.Total, Diff: env.Diff}, nil
}

// post sends body as JSON and requires the "success" sentinel.
func (c *Client) post(ctx context.Context, path string, body any) (*envelope, error) {
	env, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return nil, &APIError{Message: msg}
	}
	return env, nil
}

// do performs a request and decodes the common envelope. The body is decoded
// regardless of HTTP status: a JSON body with an error field is an
// application failure, anything undecodable is a transport failure.
func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	raw, _, err := c.raw(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return &env, nil
}

// getJSON fetches a non-envelope payload. Error bodies (any non-2xx with a
// decodable envelope) still surface as *APIError.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	raw, status, err := c.raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && (env.Error != "" || env.Message != "") {
			msg := env.Error
			if msg == "" {
				msg = env.Message
			}
			return &APIError{Message: msg}
		}
		return fmt.Errorf("%w: unexpected status %d", ErrTransport, status)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	// Non-2xx with a JSON error body is handled by the caller as an
	// application failure; non-2xx without one is a transport failure.
	if resp.StatusCode >= 300 && !json.Valid(raw) {
		return nil, resp.StatusCode, fmt.Errorf("%w: unexpected status %d", ErrTransport, resp.StatusCode)
	}
	return raw, resp.StatusCode, nil
}
