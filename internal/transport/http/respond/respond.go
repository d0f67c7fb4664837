package respond

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type envelope struct {
	Error ErrorBody `json:"error"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error writes the failure envelope {"error":{"code","message","details"}}.
func Error(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	JSON(w, status, envelope{Error: ErrorBody{Code: code, Message: message, Details: details}})
}
