package handlers

import (
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/ragstack/ragserver/internal/engine"
)

type HealthHandler struct {
	engine *engine.Engine
	redis  *redis.Client
}

func NewHealthHandler(e *engine.Engine, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{engine: e, redis: rdb}
}

// Health reports readiness plus collection stats. 503 until the engine
// finishes initializing.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": h.engine.State().String(),
		})
		return
	}

	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}

	checks := map[string]string{"engine": "ok"}
	if h.redis != nil {
		if err := h.redis.Ping(r.Context()).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"status":          statusStr(status),
		"checks":          checks,
		"document_count":  stats.Count,
		"collection_name": stats.CollectionName,
		"embedding_model": stats.EmbeddingModel,
	})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}
