package vectorindex

import (
	"context"
	"testing"
)

func TestMemory_UpsertQueryDelete(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()
	if err := idx.EnsureCollection(ctx); err != nil {
		t.Fatalf("ensure collection: %v", err)
	}

	records := []Record{
		{ID: "a", Embedding: []float32{1, 0}, Text: "east", Metadata: map[string]any{"source": "s1"}},
		{ID: "b", Embedding: []float32{0, 1}, Text: "north", Metadata: map[string]any{"source": "s2"}},
		{ID: "c", Embedding: []float32{0.9, 0.1}, Text: "mostly east", Metadata: map[string]any{"source": "s1"}},
	}
	if err := idx.Upsert(ctx, records); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	t.Run("query orders by ascending distance", func(t *testing.T) {
		matches, err := idx.Query(ctx, []float32{1, 0}, 3, nil)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(matches))
		}
		if matches[0].ID != "a" {
			t.Errorf("expected exact match first, got %s", matches[0].ID)
		}
		for i := 1; i < len(matches); i++ {
			if matches[i].Distance < matches[i-1].Distance {
				t.Errorf("distances not ascending at %d", i)
			}
		}
	})

	t.Run("query respects k", func(t *testing.T) {
		matches, err := idx.Query(ctx, []float32{1, 0}, 1, nil)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 1 {
			t.Errorf("expected 1 match, got %d", len(matches))
		}
	})

	t.Run("query with filter", func(t *testing.T) {
		matches, err := idx.Query(ctx, []float32{1, 0}, 10, Filter{"source": "s2"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(matches) != 1 || matches[0].ID != "b" {
			t.Errorf("expected only record b, got %+v", matches)
		}
	})

	t.Run("get by id", func(t *testing.T) {
		recs, err := idx.Get(ctx, []string{"a"}, nil)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(recs) != 1 || recs[0].Text != "east" {
			t.Errorf("unexpected records: %+v", recs)
		}
	})

	t.Run("get by filter", func(t *testing.T) {
		recs, err := idx.Get(ctx, nil, Filter{"source": "s1"})
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(recs) != 2 {
			t.Errorf("expected 2 records for source s1, got %d", len(recs))
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := idx.Delete(ctx, []string{"a", "c"}); err != nil {
			t.Fatalf("delete: %v", err)
		}
		count, err := idx.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 record after delete, got %d", count)
		}
	})

	t.Run("reset", func(t *testing.T) {
		if err := idx.Reset(ctx); err != nil {
			t.Fatalf("reset: %v", err)
		}
		count, _ := idx.Count(ctx)
		if count != 0 {
			t.Errorf("expected empty index after reset, got %d", count)
		}
	})
}

func TestMemory_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory()

	if err := idx.Upsert(ctx, []Record{{ID: "x", Embedding: []float32{1}, Text: "old"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := idx.Upsert(ctx, []Record{{ID: "x", Embedding: []float32{1}, Text: "new"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	recs, err := idx.Get(ctx, []string{"x"}, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(recs) != 1 || recs[0].Text != "new" {
		t.Errorf("expected replaced record, got %+v", recs)
	}
	count, _ := idx.Count(ctx)
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cosineSimilarity(tc.a, tc.b)
			if diff := got - tc.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
