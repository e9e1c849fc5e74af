package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/demo-credit/wallet-backend/internal/apperr"
)

type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Status: "success", Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Status: "error", Code: code, Message: msg})
}

// WriteServiceError maps a service failure to the envelope; anything outside
// the taxonomy becomes an opaque 500.
func WriteServiceError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		WriteError(w, ae.Status, ae.Code, ae.Message)
		return
	}
	WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
