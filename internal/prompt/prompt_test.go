package prompt

import (
	"strings"
	"testing"

	"github.com/ragstack/ragserver/internal/engine"
)

func TestBuild(t *testing.T) {
	results := []engine.SearchResult{
		{Text: "cats purr", Score: 0.912, Metadata: map[string]any{"source": "cats.txt"}},
		{Text: "dogs bark", Score: 0.455, Metadata: map[string]any{"source": "dogs.txt"}},
	}

	got := Build("why do cats purr?", results)

	for _, want := range []string{
		"[Source 1] cats.txt (score: 0.912)",
		"cats purr",
		"[Source 2] dogs.txt (score: 0.455)",
		"dogs bark",
		"Question: why do cats purr?",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}

	if strings.Index(got, "[Source 1]") > strings.Index(got, "[Source 2]") {
		t.Error("context blocks out of order")
	}
}

func TestBuildNoResults(t *testing.T) {
	got := Build("hello?", nil)
	if !strings.Contains(got, "Question: hello?") {
		t.Fatalf("prompt missing question:\n%s", got)
	}
	if strings.Contains(got, "[Source") {
		t.Fatalf("unexpected context block:\n%s", got)
	}
}

func TestBuildMissingSource(t *testing.T) {
	got := Build("q", []engine.SearchResult{{Text: "x", Score: 0.5}})
	if !strings.Contains(got, "[Source 1] unknown") {
		t.Fatalf("missing fallback source label:\n%s", got)
	}
}
