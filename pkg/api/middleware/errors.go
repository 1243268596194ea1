package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the API's error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
