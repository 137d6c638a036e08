package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/text/encoding/charmap"
)

func extractText(path string) (string, error) {
	return readTextFile(path)
}

func extractMarkdown(path string) (string, error) {
	src, err := readTextFile(path)
	if err != nil {
		return "", err
	}
	md := markdown.New(markdown.HTML(true))
	return stripHTML(md.RenderToString([]byte(src))), nil
}

func extractHTMLFile(path string) (string, error) {
	src, err := readTextFile(path)
	if err != nil {
		return "", err
	}
	return stripHTML(src), nil
}

func extractJSON(path string) (string, error) {
	src, err := readTextFile(path)
	if err != nil {
		return "", err
	}
	var data any
	if err := json.Unmarshal([]byte(src), &data); err != nil {
		return "", fmt.Errorf("parse JSON: %w", err)
	}
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render JSON: %w", err)
	}
	return string(out), nil
}

// readTextFile reads path as UTF-8 and fails over to common single-byte
// encodings rather than surfacing a decode error.
func readTextFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decodeFallback(raw), nil
}

func decodeFallback(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw); err == nil {
		return string(decoded)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		// Single-byte decoders accept any input; keep the raw bytes as a
		// last resort so extraction still yields something legible.
		return string(raw)
	}
	return string(decoded)
}
