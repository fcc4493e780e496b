// Package response writes JSON bodies from plain http.Handlers (middleware,
// file servers). Handlers built on pkg/ctx use its helpers instead.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error shape shared by every endpoint.
type ErrorBody struct {
	Status  int               `json:"status"`
	Error   string            `json:"error"`
	Details interface{}       `json:"details,omitempty"`
	Fields  map[string]string `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an ErrorBody with no details.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Status: status, Error: message})
}

func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Authentication required")
}

func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, "Too many requests")
}
