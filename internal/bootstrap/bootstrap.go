// Package bootstrap builds the fully wired retrieval engine from
// configuration. Both the API server and the worker construct their
// engine here so backend selection lives in one place.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ragstack/ragserver/internal/config"
	"github.com/ragstack/ragserver/internal/embedding"
	"github.com/ragstack/ragserver/internal/engine"
	"github.com/ragstack/ragserver/internal/ingest"
	"github.com/ragstack/ragserver/internal/loader"
	"github.com/ragstack/ragserver/internal/vectorindex"
	"github.com/ragstack/ragserver/pkg/chunker"
)

// NewEngine constructs an uninitialized engine for the configured
// vector backend and embedding provider. Callers run Initialize.
func NewEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, error) {
	index, err := newIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	return engine.New(index, embedding.NewService(embedder), cfg.Vector.Collection), nil
}

// NewIngestService wires the loader and chunker around an engine.
func NewIngestService(cfg *config.Config, e *engine.Engine) (*ingest.Service, error) {
	c, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, fmt.Errorf("chunker config: %w", err)
	}
	return ingest.NewService(loader.New(), c, e), nil
}

func newIndex(ctx context.Context, cfg *config.Config) (vectorindex.Index, error) {
	switch cfg.Vector.Backend {
	case "chroma":
		index, err := vectorindex.NewChroma(cfg.Vector.ChromaURL, cfg.Vector.Collection)
		if err != nil {
			return nil, fmt.Errorf("chroma backend: %w", err)
		}
		return index, nil
	case "pgvector":
		pool, err := pgxpool.New(ctx, cfg.Vector.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("pgvector backend: %w", err)
		}
		// Dimension is learned from the embedding model during
		// engine initialization.
		return vectorindex.NewPgVector(pool, cfg.Vector.Collection, 0), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "ollama":
		return embedding.NewOllama(cfg.Embedding.OllamaURL, cfg.Embedding.Model), nil
	case "openai":
		return embedding.NewOpenAI(cfg.Embedding.OpenAIKey, cfg.Embedding.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}
