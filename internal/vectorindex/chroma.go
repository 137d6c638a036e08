package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// Chroma implements Index over a ChromaDB collection configured for
// cosine geometry.
type Chroma struct {
	client     chromago.Client
	collection string

	mu  sync.RWMutex
	col chromago.Collection
}

var _ Index = (*Chroma)(nil)

func NewChroma(baseURL, collection string) (*Chroma, error) {
	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("create chroma client: %w", err)
	}
	return &Chroma{client: client, collection: collection}, nil
}

func (c *Chroma) EnsureCollection(ctx context.Context) error {
	col, err := c.client.GetOrCreateCollection(ctx, c.collection,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(chromago.NewStringAttribute("hnsw:space", "cosine")),
		),
	)
	if err != nil {
		return fmt.Errorf("get or create collection %s: %w", c.collection, err)
	}

	c.mu.Lock()
	c.col = col
	c.mu.Unlock()
	return nil
}

func (c *Chroma) handle() (chromago.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.col == nil {
		return nil, fmt.Errorf("collection %s not opened", c.collection)
	}
	return c.col, nil
}

func (c *Chroma) Upsert(ctx context.Context, records []Record) error {
	col, err := c.handle()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(records))
	texts := make([]string, len(records))
	embs := make([]embeddings.Embedding, len(records))
	metas := make([]chromago.DocumentMetadata, len(records))
	for i, r := range records {
		ids[i] = chromago.DocumentID(r.ID)
		texts[i] = r.Text
		embs[i] = embeddings.NewEmbeddingFromFloat32(r.Embedding)
		metas[i] = toChromaMetadata(r.Metadata)
	}

	if err := col.Upsert(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	return nil
}

func (c *Chroma) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Match, error) {
	col, err := c.handle()
	if err != nil {
		return nil, err
	}

	opts := []chromago.CollectionQueryOption{
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	}
	if where := toWhereClause(filter); where != nil {
		opts = append(opts, chromago.WithWhereQuery(where))
	}

	results, err := col.Query(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", c.collection, err)
	}

	idGroups := results.GetIDGroups()
	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	matches := make([]Match, 0, len(idGroups[0]))
	for i := range idGroups[0] {
		m := Match{
			Record: Record{ID: string(idGroups[0][i])},
		}
		if len(docGroups) > 0 && i < len(docGroups[0]) {
			m.Text = docGroups[0][i].ContentString()
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			m.Metadata = fromChromaMetadata(metaGroups[0][i])
		}
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			m.Distance = float64(distGroups[0][i])
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (c *Chroma) Get(ctx context.Context, ids []string, filter Filter) ([]Record, error) {
	col, err := c.handle()
	if err != nil {
		return nil, err
	}

	var opts []chromago.CollectionGetOption
	if len(ids) > 0 {
		docIDs := make([]chromago.DocumentID, len(ids))
		for i, id := range ids {
			docIDs[i] = chromago.DocumentID(id)
		}
		opts = append(opts, chromago.WithIDsGet(docIDs...))
	}
	if where := toWhereClause(filter); where != nil {
		opts = append(opts, chromago.WithWhereGet(where))
	}

	results, err := col.Get(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("get from collection %s: %w", c.collection, err)
	}

	gotIDs := results.GetIDs()
	docs := results.GetDocuments()
	metas := results.GetMetadatas()

	records := make([]Record, 0, len(gotIDs))
	for i := range gotIDs {
		r := Record{ID: string(gotIDs[i])}
		if i < len(docs) {
			r.Text = docs[i].ContentString()
		}
		if i < len(metas) {
			r.Metadata = fromChromaMetadata(metas[i])
		}
		records = append(records, r)
	}
	return records, nil
}

func (c *Chroma) Delete(ctx context.Context, ids []string) error {
	col, err := c.handle()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	docIDs := make([]chromago.DocumentID, len(ids))
	for i, id := range ids {
		docIDs[i] = chromago.DocumentID(id)
	}
	if err := col.Delete(ctx, chromago.WithIDsDelete(docIDs...)); err != nil {
		return fmt.Errorf("delete %d records: %w", len(ids), err)
	}
	return nil
}

func (c *Chroma) Reset(ctx context.Context) error {
	if err := c.client.DeleteCollection(ctx, c.collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", c.collection, err)
	}
	return c.EnsureCollection(ctx)
}

func (c *Chroma) Count(ctx context.Context) (int, error) {
	col, err := c.handle()
	if err != nil {
		return 0, err
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", c.collection, err)
	}
	return int(count), nil
}

func (c *Chroma) Close() error {
	return c.client.Close()
}

func toChromaMetadata(meta map[string]any) chromago.DocumentMetadata {
	attrs := make([]*chromago.MetaAttribute, 0, len(meta))
	for k, v := range meta {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float64:
			attrs = append(attrs, chromago.NewFloatAttribute(k, val))
		default:
			attrs = append(attrs, chromago.NewStringAttribute(k, fmt.Sprint(val)))
		}
	}
	return chromago.NewDocumentMetadata(attrs...)
}

// fromChromaMetadata converts DocumentMetadata to a plain map via a
// JSON round trip; the metadata type exposes no map accessor.
func fromChromaMetadata(meta chromago.DocumentMetadata) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any)
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func toWhereClause(filter Filter) chromago.WhereFilter {
	if len(filter) == 0 {
		return nil
	}
	clauses := make([]chromago.WhereClause, 0, len(filter))
	for k, v := range filter {
		switch val := v.(type) {
		case string:
			clauses = append(clauses, chromago.EqString(k, val))
		case bool:
			clauses = append(clauses, chromago.EqBool(k, val))
		case int:
			clauses = append(clauses, chromago.EqInt(k, val))
		case float64:
			clauses = append(clauses, chromago.EqFloat(k, float32(val)))
		default:
			clauses = append(clauses, chromago.EqString(k, fmt.Sprint(val)))
		}
	}
	if len(clauses) == 1 {
		return clauses[0]
	}
	return chromago.And(clauses...)
}
