package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/andy/docket/internal/domain"
	"github.com/andy/docket/internal/logger"
)

type errorResponse struct {
	Error   string `json:"error"` // conflict, validation, auth, transient, internal
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusFor maps a domain error category to an HTTP status
func StatusFor(err error) int {
	switch domain.ErrorKind(err) {
	case "conflict":
		return http.StatusConflict
	case "validation":
		return http.StatusUnprocessableEntity
	case "auth":
		return http.StatusUnauthorized
	case "transient":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", logger.Error(err))
	}
	writeJSON(w, status, errorResponse{
		Error:   domain.ErrorKind(err),
		Message: err.Error(),
	})
}
