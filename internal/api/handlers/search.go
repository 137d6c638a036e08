package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ragstack/ragserver/internal/engine"
)

type SearchHandler struct {
	engine *engine.Engine
}

func NewSearchHandler(e *engine.Engine) *SearchHandler {
	return &SearchHandler{engine: e}
}

type SearchRequest struct {
	Query          string                 `json:"query"`
	Limit          int                    `json:"limit,omitempty"`
	FilterMetadata map[string]interface{} `json:"filter_metadata,omitempty"`
}

type SearchResponse struct {
	Query      string                `json:"query"`
	Results    []engine.SearchResult `json:"results"`
	TotalFound int                   `json:"total_found"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	results, err := h.engine.Search(r.Context(), req.Query, req.Limit, req.FilterMetadata)
	if err != nil {
		engineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:      req.Query,
		Results:    results,
		TotalFound: len(results),
	})
}
