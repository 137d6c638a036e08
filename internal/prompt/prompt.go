// Package prompt assembles the grounding context handed to the
// generation model from retrieval results.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ragstack/ragserver/internal/engine"
)

const systemPrompt = `You are a helpful AI assistant. Answer the user's question based on the provided context.
If the context doesn't contain enough information, say so. Always cite which sources you used.
Format citations as [Source N] where N corresponds to the context chunk number.`

// System returns the fixed system instruction for grounded answers.
func System() string { return systemPrompt }

// Build renders the user message: numbered context blocks with scores,
// then the question. With no results the context section is empty and
// the model is expected to answer from general knowledge.
func Build(question string, results []engine.SearchResult) string {
	return fmt.Sprintf("Context:\n%s\nQuestion: %s", buildContext(results), question)
}

func buildContext(results []engine.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		source, _ := r.Metadata["source"].(string)
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&sb, "[Source %d] %s (score: %.3f)\n%s\n\n", i+1, source, r.Score, r.Text)
	}
	return sb.String()
}
