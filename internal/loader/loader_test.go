package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	l := New()
	path := writeFile(t, "binary.exe", "MZ")

	_, err := l.Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), ".exe") {
		t.Errorf("error should carry the offending extension, got %q", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	l := New()
	if _, err := l.Load(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_Text(t *testing.T) {
	l := New()
	path := writeFile(t, "note.txt", "hello world")

	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "hello world" {
		t.Errorf("expected text %q, got %q", "hello world", doc.Text)
	}

	meta := doc.Metadata
	if meta["source"] != path {
		t.Errorf("expected source %q, got %v", path, meta["source"])
	}
	if meta["filename"] != "note.txt" {
		t.Errorf("expected filename note.txt, got %v", meta["filename"])
	}
	if meta["file_type"] != ".txt" {
		t.Errorf("expected file_type .txt, got %v", meta["file_type"])
	}
	if meta["file_size"] != int64(len("hello world")) {
		t.Errorf("expected file_size %d, got %v", len("hello world"), meta["file_size"])
	}
	if _, ok := meta["processed_date"].(string); !ok {
		t.Error("expected processed_date to be set")
	}
}

func TestLoad_Markdown(t *testing.T) {
	l := New()
	path := writeFile(t, "doc.md", "# Heading\n\nSome *emphasised* body text.")

	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(doc.Text, "#") || strings.Contains(doc.Text, "*") {
		t.Errorf("markdown markup should be rendered away, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Heading") || !strings.Contains(doc.Text, "body text") {
		t.Errorf("rendered text lost content: %q", doc.Text)
	}
}

func TestLoad_HTML(t *testing.T) {
	l := New()
	path := writeFile(t, "page.html",
		`<html><head><title>T</title><style>body{color:red}</style></head>`+
			`<body><script>alert(1)</script><p>First &amp; second</p></body></html>`)

	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(doc.Text, "alert") || strings.Contains(doc.Text, "color:red") {
		t.Errorf("script/style content leaked into text: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "First & second") {
		t.Errorf("expected unescaped body text, got %q", doc.Text)
	}
}

func TestLoad_CSV(t *testing.T) {
	l := New()
	path := writeFile(t, "data.csv", "name,age\nalice,30\nbob,25\n")

	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.Text, "2 records") {
		t.Errorf("expected record count in summary, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "name, age") {
		t.Errorf("expected column listing, got %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "alice\t30") {
		t.Errorf("expected delimited row rendering, got %q", doc.Text)
	}
}

func TestLoad_JSON(t *testing.T) {
	l := New()
	path := writeFile(t, "cfg.json", `{"b":1,"a":[true,null]}`)

	doc, err := l.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.Text, `"a"`) || !strings.Contains(doc.Text, `"b"`) {
		t.Errorf("expected keys in rendered JSON, got %q", doc.Text)
	}

	path = writeFile(t, "bad.json", `{broken`)
	if _, err := l.Load(path); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestDecodeFallback(t *testing.T) {
	t.Run("valid utf8 passthrough", func(t *testing.T) {
		if got := decodeFallback([]byte("привіт")); got != "привіт" {
			t.Errorf("expected passthrough, got %q", got)
		}
	})

	t.Run("windows-1251 fallback", func(t *testing.T) {
		// "привет" in Windows-1251.
		raw := []byte{0xEF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}
		if got := decodeFallback(raw); got != "привет" {
			t.Errorf("expected decoded cyrillic, got %q", got)
		}
	})
}

func TestExtractTitle(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		if got := extractTitle("<html><title> My Page </title></html>", "fb"); got != "My Page" {
			t.Errorf("expected title, got %q", got)
		}
	})
	t.Run("absent", func(t *testing.T) {
		if got := extractTitle("<html><body/></html>", "http://x"); got != "http://x" {
			t.Errorf("expected fallback, got %q", got)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if got := extractTitle("<title>  </title>", "fb"); got != "fb" {
			t.Errorf("expected fallback for empty title, got %q", got)
		}
	})
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Example Page</title></head>` +
			`<body><script>nope()</script><p>Visible text</p></body></html>`))
	}))
	defer srv.Close()

	l := New()
	doc, err := l.LoadURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(doc.Text, "Visible text") {
		t.Errorf("expected page text, got %q", doc.Text)
	}
	if strings.Contains(doc.Text, "nope()") {
		t.Errorf("script content leaked: %q", doc.Text)
	}
	if doc.Metadata["title"] != "Example Page" {
		t.Errorf("expected title from title element, got %v", doc.Metadata["title"])
	}
	if doc.Metadata["source"] != srv.URL {
		t.Errorf("expected source %q, got %v", srv.URL, doc.Metadata["source"])
	}
}

func TestLoadURL_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := New()
	if _, err := l.LoadURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestSupportedExtensions(t *testing.T) {
	l := New()
	exts := l.SupportedExtensions()
	for _, want := range []string{".pdf", ".txt", ".md", ".html", ".csv", ".xlsx", ".json", ".docx"} {
		found := false
		for _, e := range exts {
			if e == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %s to be supported", want)
		}
	}
	if !l.Supported("report.PDF") {
		t.Error("extension matching should be case-insensitive")
	}
	if l.Supported("archive.tar.gz") {
		t.Error("unknown extension reported as supported")
	}
}
