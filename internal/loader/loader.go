// Package loader extracts plain text and provenance metadata from
// documents of varied formats. Extraction is dispatched on the file
// extension; URLs always go through the web-page extractor.
package loader

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned for extensions with no registered
// extractor. Callers must not ingest the empty result.
var ErrUnsupportedFormat = errors.New("loader: unsupported file format")

// Document is the loader output: stripped plain text plus base metadata
// (source, filename or url, file type, size, ingestion timestamp).
type Document struct {
	Text     string
	Metadata map[string]any
}

type extractFunc func(path string) (string, error)

type Loader struct {
	client     *http.Client
	extractors map[string]extractFunc
}

func New() *Loader {
	l := &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	l.extractors = map[string]extractFunc{
		".pdf":  extractPDF,
		".txt":  extractText,
		".md":   extractMarkdown,
		".html": extractHTMLFile,
		".htm":  extractHTMLFile,
		".csv":  extractCSV,
		".xlsx": extractXLSX,
		".xls":  extractXLSX,
		".json": extractJSON,
		".docx": extractDOCX,
	}
	return l
}

// SupportedExtensions lists the registered extensions, sorted.
func (l *Loader) SupportedExtensions() []string {
	exts := make([]string, 0, len(l.extractors))
	for ext := range l.extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether the path's extension has an extractor.
func (l *Loader) Supported(path string) bool {
	_, ok := l.extractors[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads the file at path and returns its plain text together with
// base metadata. An unknown extension fails with ErrUnsupportedFormat;
// extraction errors are local to this one document.
func (l *Loader) Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := l.extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	text, err := extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}

	return &Document{
		Text: text,
		Metadata: map[string]any{
			"source":         path,
			"filename":       filepath.Base(path),
			"file_type":      ext,
			"file_size":      info.Size(),
			"processed_date": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
