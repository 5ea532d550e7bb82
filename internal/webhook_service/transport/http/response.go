package http

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the uniform JSON body of the send API.
type APIResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	// ProviderError carries the provider's error payload verbatim when the
	// upstream rejected the call.
	ProviderError json.RawMessage `json:"providerError,omitempty"`
}

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, APIResponse{Success: false, Error: message})
}
