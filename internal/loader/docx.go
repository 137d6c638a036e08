package loader

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	paraClose = regexp.MustCompile(`</w:p>`)
	xmlTags   = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open DOCX: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return "", fmt.Errorf("read document.xml: %w", err)
		}

		// Paragraph closings become newlines so the text keeps its shape.
		text := paraClose.ReplaceAllString(string(data), "\n")
		text = xmlTags.ReplaceAllString(text, "")

		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		return strings.TrimSpace(strings.Join(lines, "\n")), nil
	}

	return "", fmt.Errorf("document.xml not found in %s", path)
}
