package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxWebBody caps how much of a fetched page is read.
const maxWebBody = 10 << 20

// LoadURL fetches a web page, strips embedded script/style markup and
// returns its text. The title comes from the document's title element,
// falling back to the URL itself.
func (l *Loader) LoadURL(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxWebBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	src := decodeFallback(raw)
	return &Document{
		Text: stripHTML(src),
		Metadata: map[string]any{
			"source":         url,
			"url":            url,
			"title":          extractTitle(src, url),
			"file_type":      "url",
			"file_size":      int64(len(raw)),
			"processed_date": time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
