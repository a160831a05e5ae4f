package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"venue-cms/internal/apperr"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Details   []string    `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// WriteError renders err using the shared envelope. Classified errors keep
// their message; anything else becomes a generic internal error so stack
// detail never leaks to clients.
func WriteError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if _, ok := apperr.KindOf(err); !ok {
		msg = "internal error"
	}
	WriteJSON(w, status, APIResponse{
		Success:   false,
		Error:     msg,
		Details:   apperr.DetailsOf(err),
		Timestamp: time.Now().UTC(),
	})
}
