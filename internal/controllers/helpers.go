package controllers

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/imi6/dandan/internal/apperr"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Type    string `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// writeAppError maps an error onto the taxonomy and emits the structured
// body. Internal detail is hidden unless the server runs in debug mode.
func writeAppError(w http.ResponseWriter, err error, debug bool) {
	status := apperr.HTTPStatus(err)
	typeName := apperr.TypeName(err)

	message := err.Error()
	if typeName == "InternalError" && !debug {
		message = "An unexpected error occurred"
	}

	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   message,
		Type:    typeName,
	})
}
