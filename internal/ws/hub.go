// Package ws pushes stock-update events to management dashboards over
// WebSocket. One room: inventory events are store-wide.
package ws

import (
	"encoding/json"
	"sync"
)

// Event is a WebSocket message to broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// StockUpdate is the payload of a "stock_update" event, sent after every
// inventory-affecting transaction.
type StockUpdate struct {
	Flow  string `json:"flow"`
	Staff string `json:"staff"`
}

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues an event for every connected client.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// BroadcastStockUpdate announces that a transaction changed stock counts.
func (h *Hub) BroadcastStockUpdate(update StockUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	h.Broadcast(Event{Type: "stock_update", Payload: payload})
}
