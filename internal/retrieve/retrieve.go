// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"strings"

	"github.com/pdiddy/codetask/pkg/types"
)

// methodologyQueries are the fixed probes run against each indexed paper.
// They target the sections where study procedure details live, which
// abstracts usually compress away.
var methodologyQueries = []string{
	"study methodology participants task procedure",
	"programming task coding implementation what participants did",
	"tools environment IDE programming language used",
	"participant background experience skill level recruitment",
}

const (
	defaultTopK             = 2
	defaultMaxContextChunks = 6
)

// Searcher is the slice of Index the context builder needs; tests supply a
// mock.
type Searcher interface {
	HasPaper(paperID string) bool
	Query(ctx context.Context, paperID, query string, k int) ([]string, error)
}

// Builder assembles the retrieved-context block for a paper from the
// methodology probes.
type Builder struct {
	index     Searcher
	topK      int
	maxChunks int
}

// NewBuilder builds a context Builder. Non-positive TopK or
// MaxContextChunks use the defaults (2 and 6).
func NewBuilder(index Searcher, cfg types.RetrievalConfig) *Builder {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	maxChunks := cfg.MaxContextChunks
	if maxChunks <= 0 {
		maxChunks = defaultMaxContextChunks
	}
	return &Builder{index: index, topK: topK, maxChunks: maxChunks}
}

// Context runs every methodology query against the paper's collection,
// deduplicates identical chunks across queries, caps the total, and joins
// the survivors with blank lines. Papers without an indexed full text yield
// an empty context; the prompts then fall back to abstract-only.
func (b *Builder) Context(ctx context.Context, paperID string) (string, error) {
	if b.index == nil || !b.index.HasPaper(paperID) {
		return "", nil
	}

	seen := make(map[string]bool)
	var chunks []string
	for _, query := range methodologyQueries {
		results, err := b.index.Query(ctx, paperID, query, b.topK)
		if err != nil {
			return "", err
		}
		for _, chunk := range results {
			if seen[chunk] {
				continue
			}
			seen[chunk] = true
			chunks = append(chunks, chunk)
			if len(chunks) >= b.maxChunks {
				return strings.Join(chunks, "\n\n"), nil
			}
		}
	}
	return strings.Join(chunks, "\n\n"), nil
}
