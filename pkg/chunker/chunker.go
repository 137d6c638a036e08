// Package chunker splits extracted document text into overlapping
// fixed-size windows ready for embedding. The window unit is the rune:
// chunk boundaries never fall inside a UTF-8 code point.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// ErrInvalidConfig is returned when the size/overlap pair cannot produce
// a forward-moving window.
var ErrInvalidConfig = errors.New("chunker: overlap must satisfy 0 < overlap < size")

// Chunk is the unit of embedding and storage: a bounded text fragment
// plus its metadata.
type Chunk struct {
	Text     string
	Metadata map[string]any
}

type Chunker struct {
	size    int
	overlap int
}

// New validates the window configuration. Overlap must be strictly
// between zero and the chunk size.
func New(size, overlap int) (*Chunker, error) {
	if overlap <= 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidConfig, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk walks a rune window of the configured size across text with
// stride size-overlap. Each emitted chunk carries a copy of base plus
// chunk_id (zero-based position) and total_chunks (set uniformly once
// the sequence length is known). Empty or whitespace-only text yields
// no chunks. The transformation is pure: identical inputs always
// produce identical output.
func (c *Chunker) Chunk(text string, base map[string]any) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	stride := c.size - c.overlap

	chunks := make([]Chunk, 0, len(runes)/stride+1)
	for start := 0; start < len(runes); start += stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		meta := make(map[string]any, len(base)+2)
		for k, v := range base {
			meta[k] = v
		}
		meta["chunk_id"] = len(chunks)

		chunks = append(chunks, Chunk{
			Text:     string(runes[start:end]),
			Metadata: meta,
		})

		if end == len(runes) {
			break
		}
	}

	for i := range chunks {
		chunks[i].Metadata["total_chunks"] = len(chunks)
	}

	return chunks
}
