// Package handlers contains the HTTP handlers. They stay thin: decode,
// validate, call the engine or queue, map errors to status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ragstack/ragserver/internal/embedding"
	"github.com/ragstack/ragserver/internal/engine"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// engineError maps engine failures onto HTTP status codes.
func engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, "engine not ready")
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, embedding.ErrEmbeddingFailure):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
