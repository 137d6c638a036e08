package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ragstack/ragserver/internal/embedding"
	"github.com/ragstack/ragserver/internal/engine"
	"github.com/ragstack/ragserver/internal/loader"
	"github.com/ragstack/ragserver/internal/vectorindex"
	"github.com/ragstack/ragserver/pkg/chunker"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (fixedEmbedder) Model() string { return "fixed" }

func newService(t *testing.T) (*Service, *engine.Engine) {
	t.Helper()
	e := engine.New(vectorindex.NewMemory(), embedding.NewService(fixedEmbedder{}), "ingest_test")
	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	c, err := chunker.New(50, 10)
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	return NewService(loader.New(), c, e), e
}

func TestIngestFile(t *testing.T) {
	ctx := context.Background()
	svc, eng := newService(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "The quick brown fox jumps over the lazy dog. " +
		"Pack my box with five dozen liquor jugs. " +
		"How vexingly quick daft zebras jump."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := svc.IngestFile(ctx, path)
	if err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if res.Chunks == 0 {
		t.Fatal("no chunks ingested")
	}
	if res.Source != path {
		t.Fatalf("source = %q, want %q", res.Source, path)
	}

	stats, err := eng.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != res.Chunks {
		t.Fatalf("indexed %d chunks, result says %d", stats.Count, res.Chunks)
	}

	sources, err := eng.Sources(ctx)
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if len(sources) != 1 || sources[0] != path {
		t.Fatalf("sources = %v", sources)
	}
}

func TestIngestFileErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	t.Run("missing file", func(t *testing.T) {
		if _, err := svc.IngestFile(ctx, "/nonexistent/file.txt"); err == nil {
			t.Fatal("want error for missing file")
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "binary.exe")
		if err := os.WriteFile(path, []byte("MZ"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.IngestFile(ctx, path); err == nil {
			t.Fatal("want error for unsupported format")
		}
	})

	t.Run("empty file is a no-op", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "empty.txt")
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		res, err := svc.IngestFile(ctx, path)
		if err != nil {
			t.Fatalf("IngestFile: %v", err)
		}
		if res.Chunks != 0 {
			t.Fatalf("chunks = %d, want 0", res.Chunks)
		}
	})
}

func TestIngestURL(t *testing.T) {
	ctx := context.Background()
	svc, eng := newService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Page Title</title></head><body><p>" +
			"Relevant page text that should end up in the index as at least one chunk." +
			"</p></body></html>"))
	}))
	defer srv.Close()

	res, err := svc.IngestURL(ctx, srv.URL, "Custom Title")
	if err != nil {
		t.Fatalf("IngestURL: %v", err)
	}
	if res.Chunks == 0 {
		t.Fatal("no chunks ingested from url")
	}
	if res.Source != srv.URL {
		t.Fatalf("source = %q, want %q", res.Source, srv.URL)
	}

	results, err := eng.Search(ctx, "anything", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results after url ingestion")
	}
	if results[0].Metadata["title"] != "Custom Title" {
		t.Fatalf("title = %v, want Custom Title", results[0].Metadata["title"])
	}
}
