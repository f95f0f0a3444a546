package handler

import (
	"encoding/json"
	"log"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// itemPayload is one transaction line on the wire.
type itemPayload struct {
	Name string `json:"name"`
	Size string `json:"size"`
	Qty  int    `json:"qty"`
}
