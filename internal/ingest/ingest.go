// Package ingest wires the loader, the chunker and the retrieval
// engine into the document ingestion entry points used by both the
// HTTP layer and the background worker.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ragstack/ragserver/internal/engine"
	"github.com/ragstack/ragserver/internal/loader"
	"github.com/ragstack/ragserver/pkg/chunker"
)

// Result summarizes one completed ingestion.
type Result struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

type Service struct {
	loader  *loader.Loader
	chunker *chunker.Chunker
	engine  *engine.Engine
}

func NewService(l *loader.Loader, c *chunker.Chunker, e *engine.Engine) *Service {
	return &Service{loader: l, chunker: c, engine: e}
}

// Supported reports whether the file format can be ingested.
func (s *Service) Supported(path string) bool { return s.loader.Supported(path) }

// IngestFile loads a file from disk, chunks it and adds every chunk to
// the engine. Chunks already written stay written if a later step
// fails.
func (s *Service) IngestFile(ctx context.Context, path string) (*Result, error) {
	doc, err := s.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s.ingest(ctx, doc)
}

// IngestURL fetches a page, extracts its text and ingests it like a
// file. An explicit title overrides the page's own.
func (s *Service) IngestURL(ctx context.Context, url, title string) (*Result, error) {
	doc, err := s.loader.LoadURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load url %s: %w", url, err)
	}
	if title != "" {
		doc.Metadata["title"] = title
	}
	return s.ingest(ctx, doc)
}

func (s *Service) ingest(ctx context.Context, doc *loader.Document) (*Result, error) {
	source, _ := doc.Metadata["source"].(string)

	chunks := s.chunker.Chunk(doc.Text, doc.Metadata)
	if len(chunks) == 0 {
		slog.Warn("document produced no chunks", "source", source)
		return &Result{Source: source, Chunks: 0}, nil
	}

	if err := s.engine.AddDocuments(ctx, chunks); err != nil {
		return nil, fmt.Errorf("index %s: %w", source, err)
	}

	slog.Info("document ingested", "source", source, "chunks", len(chunks))
	return &Result{Source: source, Chunks: len(chunks)}, nil
}
