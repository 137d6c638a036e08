// Package api assembles the chi router over the retrieval engine.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ragstack/ragserver/internal/api/handlers"
	"github.com/ragstack/ragserver/internal/api/middleware"
	"github.com/ragstack/ragserver/internal/config"
	"github.com/ragstack/ragserver/internal/engine"
	"github.com/ragstack/ragserver/internal/llm"
	"github.com/ragstack/ragserver/internal/loader"
)

type Router struct {
	mux    *chi.Mux
	cfg    *config.Config
	engine *engine.Engine
	loader *loader.Loader
	queue  handlers.Enqueuer
	redis  *redis.Client
	llmGW  llm.Gateway
}

func NewRouter(cfg *config.Config, e *engine.Engine, l *loader.Loader, q handlers.Enqueuer, rdb *redis.Client) *Router {
	return &Router{
		mux:    chi.NewRouter(),
		cfg:    cfg,
		engine: e,
		loader: l,
		queue:  q,
		redis:  rdb,
		llmGW:  llm.NewGateway(cfg.LLM),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.engine, rt.redis)
	r.Get("/health", health.Health)

	docH := handlers.NewDocumentHandler(rt.engine, rt.loader, rt.queue,
		rt.cfg.Upload.Dir, rt.cfg.Upload.MaxSizeBytes)
	r.Route("/documents", func(r chi.Router) {
		r.Post("/upload", docH.Upload)
		r.Post("/url", docH.AddURL)
		r.Get("/stats", docH.Stats)
		r.Get("/sources", docH.Sources)
		r.Delete("/clear", docH.Clear)
		r.Delete("/source", docH.DeleteSource)
		r.Get("/{id}", docH.Get)
		r.Put("/{id}", docH.Update)
	})

	searchH := handlers.NewSearchHandler(rt.engine)
	r.Post("/search", searchH.Search)

	chatH := handlers.NewChatHandler(rt.engine, rt.llmGW, rt.cfg.LLM.DefaultModel)
	r.Post("/chat", chatH.Chat)

	return r
}
