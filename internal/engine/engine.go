// Package engine implements the retrieval engine: the state machine
// orchestrating the embedding provider and the vector index for
// add/search/update/delete/list operations with consistent score
// semantics.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ragstack/ragserver/internal/embedding"
	"github.com/ragstack/ragserver/internal/vectorindex"
	"github.com/ragstack/ragserver/pkg/chunker"
)

var (
	// ErrNotReady gates every operation until initialization completes.
	ErrNotReady = errors.New("engine: not ready")
	// ErrNotFound signals a lookup by id with no match.
	ErrNotFound = errors.New("engine: document not found")
)

// State is the engine lifecycle position.
type State int

const (
	StateNotInitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotInitialized:
		return "not_initialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SearchResult is an ephemeral query hit. Score lies in [0,1], higher
// is more relevant.
type SearchResult struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// Document is a stored chunk record as returned by lookups.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Stats describes the current collection.
type Stats struct {
	Count          int    `json:"count"`
	CollectionName string `json:"collection_name"`
	EmbeddingModel string `json:"embedding_model"`
}

// Engine owns no chunk data itself; the vector index is authoritative
// for every read.
type Engine struct {
	index      vectorindex.Index
	embed      *embedding.Service
	collection string

	mu    sync.RWMutex
	state State
}

func New(index vectorindex.Index, embed *embedding.Service, collection string) *Engine {
	return &Engine{
		index:      index,
		embed:      embed,
		collection: collection,
		state:      StateNotInitialized,
	}
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Ready reports whether operations are accepted.
func (e *Engine) Ready() bool { return e.State() == StateReady }

func (e *Engine) checkReady() error {
	if !e.Ready() {
		return fmt.Errorf("%w: state %s", ErrNotReady, e.State())
	}
	return nil
}

// Initialize loads the embedding model and opens the collection,
// transitioning to Ready on success or Failed on any error. Valid only
// from NotInitialized; callers serialize initialization.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.state != StateNotInitialized {
		state := e.state
		e.mu.Unlock()
		return fmt.Errorf("engine: initialize called in state %s", state)
	}
	e.state = StateInitializing
	e.mu.Unlock()

	fail := func(err error) error {
		e.mu.Lock()
		e.state = StateFailed
		e.mu.Unlock()
		slog.Error("engine initialization failed", "error", err)
		return err
	}

	slog.Info("loading embedding model", "model", e.embed.Model())
	if err := e.embed.Load(ctx); err != nil {
		return fail(fmt.Errorf("load embedding model: %w", err))
	}

	if d, ok := e.index.(interface{ SetDimension(int) }); ok {
		d.SetDimension(e.embed.Dimension())
	}

	slog.Info("opening vector collection", "collection", e.collection)
	if err := e.index.EnsureCollection(ctx); err != nil {
		return fail(fmt.Errorf("open collection %s: %w", e.collection, err))
	}

	e.mu.Lock()
	e.state = StateReady
	e.mu.Unlock()
	slog.Info("engine ready", "collection", e.collection, "model", e.embed.Model(),
		"dimension", e.embed.Dimension())
	return nil
}

// AddDocuments embeds all chunk texts in one batched call, assigns
// fresh globally unique ids and upserts the batch. All-or-nothing: if
// embedding fails partway, nothing is upserted. No-op on empty input.
func (e *Engine) AddDocuments(ctx context.Context, chunks []chunker.Chunk) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := e.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}

	records := make([]vectorindex.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorindex.Record{
			ID:        uuid.NewString(),
			Embedding: vectors[i],
			Text:      c.Text,
			Metadata:  c.Metadata,
		}
	}

	if err := e.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(records), err)
	}

	slog.Info("documents added", "chunks", len(records), "collection", e.collection)
	return nil
}

// Search embeds the query and returns up to n results ranked by
// descending score, where score = 1 - cosine distance clamped to
// [0,1]. filter constrains results to exact metadata matches.
func (e *Engine) Search(ctx context.Context, query string, n int, filter map[string]any) ([]SearchResult, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	vector, err := e.embed.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := e.index.Query(ctx, vector, n, vectorindex.Filter(filter))
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			ID:       m.ID,
			Text:     m.Text,
			Metadata: m.Metadata,
			Score:    clampScore(1 - m.Distance),
		}
	}
	return results, nil
}

// Sources lists the distinct metadata source values, sorted ascending.
func (e *Engine) Sources(ctx context.Context) ([]string, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	records, err := e.index.Get(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	seen := make(map[string]struct{})
	for _, r := range records {
		if src, ok := r.Metadata["source"].(string); ok {
			seen[src] = struct{}{}
		}
	}

	sources := make([]string, 0, len(seen))
	for src := range seen {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources, nil
}

// DeleteBySource removes every chunk whose source matches in one
// batch. A nonexistent source is a no-op, not an error.
func (e *Engine) DeleteBySource(ctx context.Context, source string) error {
	if err := e.checkReady(); err != nil {
		return err
	}

	records, err := e.index.Get(ctx, nil, vectorindex.Filter{"source": source})
	if err != nil {
		return fmt.Errorf("find chunks for source %s: %w", source, err)
	}
	if len(records) == 0 {
		slog.Info("no chunks for source", "source", source)
		return nil
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	if err := e.index.Delete(ctx, ids); err != nil {
		return fmt.Errorf("delete %d chunks for source %s: %w", len(ids), source, err)
	}

	slog.Info("source deleted", "source", source, "chunks", len(ids))
	return nil
}

// UpdateDocument recomputes the embedding from the new text and
// replaces text, metadata and embedding in one upsert. The id must
// already exist.
func (e *Engine) UpdateDocument(ctx context.Context, id, text string, metadata map[string]any) error {
	if err := e.checkReady(); err != nil {
		return err
	}

	existing, err := e.index.Get(ctx, []string{id}, nil)
	if err != nil {
		return fmt.Errorf("look up document %s: %w", id, err)
	}
	if len(existing) == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	vector, err := e.embed.EmbedOne(ctx, text)
	if err != nil {
		return fmt.Errorf("embed updated text: %w", err)
	}

	err = e.index.Upsert(ctx, []vectorindex.Record{{
		ID:        id,
		Embedding: vector,
		Text:      text,
		Metadata:  metadata,
	}})
	if err != nil {
		return fmt.Errorf("update document %s: %w", id, err)
	}

	slog.Info("document updated", "id", id)
	return nil
}

// DocumentByID returns the full record, or ErrNotFound when the id
// does not exist.
func (e *Engine) DocumentByID(ctx context.Context, id string) (*Document, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	records, err := e.index.Get(ctx, []string{id}, nil)
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r := records[0]
	return &Document{ID: r.ID, Text: r.Text, Metadata: r.Metadata}, nil
}

// ClearCollection drops the collection and recreates it empty with the
// same geometry; subsequent operations behave as if nothing had been
// ingested.
func (e *Engine) ClearCollection(ctx context.Context) error {
	if err := e.checkReady(); err != nil {
		return err
	}
	if err := e.index.Reset(ctx); err != nil {
		return fmt.Errorf("clear collection %s: %w", e.collection, err)
	}
	slog.Info("collection cleared", "collection", e.collection)
	return nil
}

// Stats reports the current chunk count, collection name and embedding
// model identifier.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	if err := e.checkReady(); err != nil {
		return nil, err
	}

	count, err := e.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count collection %s: %w", e.collection, err)
	}
	return &Stats{
		Count:          count,
		CollectionName: e.collection,
		EmbeddingModel: e.embed.Model(),
	}, nil
}

// Close releases held handles and returns the engine to
// NotInitialized. Always succeeds, from any state.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.state = StateNotInitialized
	e.mu.Unlock()

	if err := e.index.Close(); err != nil {
		slog.Warn("closing vector index", "error", err)
	}
	slog.Info("engine closed", "collection", e.collection)
	return nil
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
