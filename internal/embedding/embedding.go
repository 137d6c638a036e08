// Package embedding maps text to fixed-length dense vectors through a
// pluggable provider. The provider's model load is a one-time blocking
// step gated behind Service.Load, executed off the request path.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmbeddingFailure wraps model inference errors.
var ErrEmbeddingFailure = errors.New("embedding failure")

// Embedder is the provider capability: deterministic batch encoding
// given a fixed model.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Service wraps an Embedder with API-limit batching and tracks the
// vector dimensionality learned during the warm-up probe.
type Service struct {
	embedder  Embedder
	batchSize int
	dimension int
}

const defaultBatchSize = 100

func NewService(e Embedder) *Service {
	return &Service{embedder: e, batchSize: defaultBatchSize}
}

// Load forces the underlying model to load by embedding a probe text
// and records the embedding dimensionality. Blocking; called once
// during engine initialization. A failure here is fatal to readiness
// and is not retried.
func (s *Service) Load(ctx context.Context) error {
	vecs, err := s.embedder.Embed(ctx, []string{"warmup"})
	if err != nil {
		return fmt.Errorf("%w: load model %s: %v", ErrEmbeddingFailure, s.embedder.Model(), err)
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return fmt.Errorf("%w: model %s returned an empty vector", ErrEmbeddingFailure, s.embedder.Model())
	}
	s.dimension = len(vecs[0])
	return nil
}

// Dimension is the vector length learned by Load; zero before Load.
func (s *Service) Dimension() int { return s.dimension }

func (s *Service) Model() string { return s.embedder.Model() }

// Embed encodes texts in batches. All-or-nothing: a failed batch fails
// the whole call and no partial result is returned.
func (s *Service) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += s.batchSize {
		end := i + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vecs, err := s.embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: batch %d: %v", ErrEmbeddingFailure, i/s.batchSize, err)
		}
		if len(vecs) != end-i {
			return nil, fmt.Errorf("%w: batch %d returned %d vectors for %d texts",
				ErrEmbeddingFailure, i/s.batchSize, len(vecs), end-i)
		}
		all = append(all, vecs...)
	}
	return all, nil
}

// EmbedOne encodes a single text.
func (s *Service) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", ErrEmbeddingFailure)
	}
	return vecs[0], nil
}
