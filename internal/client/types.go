package client

// Item is one transaction line as it travels over the wire.
type Item struct {
	Name string `json:"name"`
	Size string `json:"size"`
	Qty  int    `json:"qty"`
}

// Variant is a single size/style option with its two stock counts.
// Variants travel as an ordered array so the catalog's native order survives
// JSON (object keys would not).
type Variant struct {
	Label     string `json:"label"`
	Front     int    `json:"front"`
	Warehouse int    `json:"warehouse"`
}

// Product is a catalog entry as served by /api/products.
type Product struct {
	Name     string    `json:"name"`
	Price    int       `json:"price"`
	Category string    `json:"category"`
	Variants []Variant `json:"variants"`
}

// ReturnRecord is one prior return, as served by /api/relog-latest.
type ReturnRecord struct {
	ID    string `json:"id"`
	Time  string `json:"time"`
	Items []Item `json:"items"`
}

// --- Submission requests, one per flow endpoint ---

type SaleRequest struct {
	Identity string `json:"identity"`
	Channel  string `json:"channel"`
	OrderID  string `json:"order_id"`
	Items    []Item `json:"items"`
}

type GiftRequest struct {
	Giver string `json:"giver"`
	Items []Item `json:"items"`
}

type ReturnRequest struct {
	Identity string `json:"identity"`
	Channel  string `json:"channel"`
	Items    []Item `json:"items"`
}

type ExchangeRequest struct {
	Identity string `json:"identity"`
	Channel  string `json:"channel"`
	OrderID  string `json:"order_id"`
	OldItems []Item `json:"old_items"`
	NewItems []Item `json:"new_items"`
}

// ItemsRequest is shared by /api/transfer and /api/restock (escheat reuses
// the restock endpoint).
type ItemsRequest struct {
	Items []Item `json:"items"`
}

// UsageRequest is shared by internal-use and temporary-use.
type UsageRequest struct {
	Reason string `json:"reason"`
	Items  []Item `json:"items"`
}

// SubmitResult carries the server's success payload. Total is set by sale and
// return, Diff by exchange.
type SubmitResult struct {
	Total int
	Diff  int
}
