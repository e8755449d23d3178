package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"watchlog/utils"
)

// Pairing attempts allowed before the endpoint locks until restart.
const maxPairAttempts = 5

// AuthHandler exchanges the startup pairing code for the API key so a
// companion client can be linked without copying the key by hand.
type AuthHandler struct {
	apiKey string
	code   string

	mu       sync.Mutex
	attempts int
}

func NewAuthHandler(apiKey, pairingCode string) *AuthHandler {
	return &AuthHandler{apiKey: apiKey, code: pairingCode}
}

// Pair validates the submitted code and, on match, hands out the API key.
// Repeated failures lock the endpoint until the next restart rotates the code.
func (h *AuthHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Code string `json:"code"`
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !utils.ValidatePairingCode(request.Code) {
		http.Error(w, "pairing code must be 6 digits", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.attempts >= maxPairAttempts {
		http.Error(w, "pairing locked, restart the server for a new code", http.StatusForbidden)
		return
	}
	if request.Code != h.code {
		h.attempts++
		log.Printf("[auth-handler] WARN: rejected pairing attempt %d/%d", h.attempts, maxPairAttempts)
		http.Error(w, "wrong pairing code", http.StatusForbidden)
		return
	}

	h.attempts = 0
	log.Printf("[auth-handler] Pairing code accepted, issued API key")
	writeJSON(w, map[string]string{"apiKey": h.apiKey})
}
