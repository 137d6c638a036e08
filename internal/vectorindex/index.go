// Package vectorindex defines the capability interface over the
// approximate-nearest-neighbor engine that stores chunk records. The
// engine treats the index as the single owner of chunk storage; every
// read is authoritative at call time.
package vectorindex

import "context"

// Record is one stored chunk: id, embedding, text and metadata.
type Record struct {
	ID        string
	Embedding []float32
	Text      string
	Metadata  map[string]any
}

// Match is one similarity-query hit. Distance is the index's native
// cosine distance, ascending order, smaller is closer.
type Match struct {
	Record
	Distance float64
}

// Filter is an exact-match predicate over metadata fields, ANDed.
type Filter map[string]any

// Index is the vector store capability. Implementations must provide
// at-least record-level atomicity for single upsert/delete calls; a
// record must never be visible half-updated to a concurrent Query.
type Index interface {
	// EnsureCollection opens or creates the named collection with
	// cosine geometry.
	EnsureCollection(ctx context.Context) error

	Upsert(ctx context.Context, records []Record) error

	// Query returns up to k nearest neighbors under cosine distance,
	// optionally constrained by filter, ordered by ascending distance.
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Match, error)

	// Get fetches records by id and/or filter; nil ids with nil filter
	// lists the whole collection. Embeddings are not returned.
	Get(ctx context.Context, ids []string, filter Filter) ([]Record, error)

	Delete(ctx context.Context, ids []string) error

	// Reset drops the collection and recreates it empty with the same
	// geometry configuration.
	Reset(ctx context.Context) error

	Count(ctx context.Context) (int, error)

	Close() error
}
