package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// errorBody is the JSON envelope the middleware layer writes when it rejects
// a request itself, shaped like the API's regular error responses.
type errorBody struct {
	Timestamp         time.Time `json:"timestamp"`
	Status            int       `json:"status"`
	Error             string    `json:"error"`
	Message           string    `json:"message"`
	Path              string    `json:"path"`
	RetryAfterSeconds int64     `json:"retry_after_seconds,omitempty"`
}

func writeError(w http.ResponseWriter, status int, title, message, path string, retryAfter int64) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Timestamp:         time.Now().UTC(),
		Status:            status,
		Error:             title,
		Message:           message,
		Path:              path,
		RetryAfterSeconds: retryAfter,
	})
}
