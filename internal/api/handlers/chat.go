package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ragstack/ragserver/internal/engine"
	"github.com/ragstack/ragserver/internal/llm"
	"github.com/ragstack/ragserver/internal/prompt"
)

type ChatHandler struct {
	engine       *engine.Engine
	gateway      llm.Gateway
	defaultModel string
}

func NewChatHandler(e *engine.Engine, gw llm.Gateway, defaultModel string) *ChatHandler {
	return &ChatHandler{engine: e, gateway: gw, defaultModel: defaultModel}
}

type ChatRequest struct {
	Message     string  `json:"message"`
	UseRAG      *bool   `json:"use_rag,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
	Provider    string  `json:"provider,omitempty"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Tokens   int      `json:"tokens"`
}

// Chat answers a question, by default grounded on retrieved chunks.
// With use_rag false the model answers without retrieval.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message required")
		return
	}

	useRAG := req.UseRAG == nil || *req.UseRAG
	topK := req.TopK
	if topK <= 0 {
		topK = 5
	}

	var results []engine.SearchResult
	if useRAG {
		var err error
		results, err = h.engine.Search(r.Context(), req.Message, topK, nil)
		if err != nil {
			engineError(w, err)
			return
		}
	}

	model := req.Model
	if model == "" {
		model = h.defaultModel
	}

	messages := []llm.Message{{Role: "user", Content: req.Message}}
	if useRAG {
		messages = []llm.Message{
			{Role: "system", Content: prompt.System()},
			{Role: "user", Content: prompt.Build(req.Message, results)},
		}
	}

	resp, err := h.gateway.Chat(r.Context(), llm.ChatRequest{
		Provider:    req.Provider,
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{})
	for _, res := range results {
		src, _ := res.Metadata["source"].(string)
		if src == "" {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: resp.Content,
		Sources:  sources,
		Provider: resp.Provider,
		Model:    resp.Model,
		Tokens:   resp.TotalTokens,
	})
}
