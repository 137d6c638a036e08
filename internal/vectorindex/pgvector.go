package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgVector implements Index on Postgres with the pgvector extension.
// Records live in a single table partitioned logically by collection
// name; cosine distance uses the <=> operator.
type PgVector struct {
	db         *pgxpool.Pool
	collection string
	dimension  int
}

var _ Index = (*PgVector)(nil)

func NewPgVector(db *pgxpool.Pool, collection string, dimension int) *PgVector {
	return &PgVector{db: db, collection: collection, dimension: dimension}
}

// SetDimension fixes the vector width before EnsureCollection when it
// is only known after the embedding model loads.
func (s *PgVector) SetDimension(dim int) { s.dimension = dim }

func (s *PgVector) EnsureCollection(ctx context.Context) error {
	if s.dimension <= 0 {
		return fmt.Errorf("pgvector: embedding dimension must be positive, got %d", s.dimension)
	}

	if _, err := s.db.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}

	_, err := s.db.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS rag_chunks (
			id         TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}',
			embedding  vector(%d) NOT NULL
		)`, s.dimension))
	if err != nil {
		return fmt.Errorf("create rag_chunks table: %w", err)
	}

	_, err = s.db.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS rag_chunks_collection_idx ON rag_chunks (collection)")
	if err != nil {
		return fmt.Errorf("create collection index: %w", err)
	}
	return nil
}

func (s *PgVector) Upsert(ctx context.Context, records []Record) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO rag_chunks (id, collection, content, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO UPDATE SET content = $3, metadata = $4, embedding = $5`,
			r.ID, s.collection, r.Text, meta, pgvector.NewVector(r.Embedding),
		)
		if err != nil {
			return fmt.Errorf("upsert record %s: %w", r.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgVector) Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		k = 10
	}

	query := `SELECT id, content, metadata, embedding <=> $1 AS distance
	          FROM rag_chunks WHERE collection = $2`
	args := []any{pgvector.NewVector(vector), s.collection}

	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		query += " AND metadata @> $3"
		args = append(args, filterJSON)
	}
	query += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT %d", k)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var meta []byte
		if err := rows.Scan(&m.ID, &m.Text, &meta, &m.Distance); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal(meta, &m.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", m.ID, err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *PgVector) Get(ctx context.Context, ids []string, filter Filter) ([]Record, error) {
	query := `SELECT id, content, metadata FROM rag_chunks WHERE collection = $1`
	args := []any{s.collection}

	if len(ids) > 0 {
		query += fmt.Sprintf(" AND id = ANY($%d)", len(args)+1)
		args = append(args, ids)
	}
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("marshal filter: %w", err)
		}
		query += fmt.Sprintf(" AND metadata @> $%d", len(args)+1)
		args = append(args, filterJSON)
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var meta []byte
		if err := rows.Scan(&r.ID, &r.Text, &meta); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PgVector) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		"DELETE FROM rag_chunks WHERE collection = $1 AND id = ANY($2)",
		s.collection, ids)
	if err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

func (s *PgVector) Reset(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "DELETE FROM rag_chunks WHERE collection = $1", s.collection)
	if err != nil {
		return fmt.Errorf("reset collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *PgVector) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM rag_chunks WHERE collection = $1", s.collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count collection %s: %w", s.collection, err)
	}
	return count, nil
}

func (s *PgVector) Close() error {
	s.db.Close()
	return nil
}
