// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/pdiddy/codetask/pkg/types"
)

// DefaultEmbeddingModel is the OpenAI embedding model used when the
// configuration does not name one.
const DefaultEmbeddingModel = "text-embedding-3-small"

// Index is a persistent vector index with one collection per paper. Papers
// are indexed once from their extracted full text; queries always target a
// single paper's collection so excerpts never bleed across papers.
type Index struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc
	chunkSize int
	overlap   int
}

// OpenAIEmbedding returns an embedding function backed by the OpenAI
// embeddings API. An empty model uses DefaultEmbeddingModel.
func OpenAIEmbedding(apiKey, model string) chromem.EmbeddingFunc {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model))
}

// NewIndex opens (or creates) the persistent index under cfg.IndexDir using
// the given embedding function.
func NewIndex(cfg types.RetrievalConfig, embedFunc chromem.EmbeddingFunc) (*Index, error) {
	if cfg.IndexDir == "" {
		return nil, fmt.Errorf("no index directory configured")
	}
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(cfg.IndexDir, false)
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	return &Index{
		db:        db,
		embedFunc: embedFunc,
		chunkSize: cfg.ChunkSize,
		overlap:   cfg.ChunkOverlap,
	}, nil
}

// collectionName derives a filesystem-safe collection name from a paper ID.
func collectionName(paperID string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, paperID)
	return "paper-" + mapped
}

// IndexPaper splits a paper's full text into overlapping chunks and embeds
// them into the paper's collection. Indexing the same paper again replaces
// chunks by ID rather than duplicating them.
func (x *Index) IndexPaper(ctx context.Context, paperID, text string) error {
	chunks := SplitText(text, x.chunkSize, x.overlap)
	if len(chunks) == 0 {
		return fmt.Errorf("paper %s has no text to index", paperID)
	}

	collection, err := x.db.GetOrCreateCollection(collectionName(paperID), nil, x.embedFunc)
	if err != nil {
		return fmt.Errorf("creating collection for paper %s: %w", paperID, err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("chunk-%04d", i),
			Content: chunk,
			Metadata: map[string]string{
				"paper_id": paperID,
			},
		}
	}

	if err := collection.AddDocuments(ctx, docs, 2); err != nil {
		return fmt.Errorf("indexing paper %s: %w", paperID, err)
	}
	return nil
}

// HasPaper reports whether the paper has an indexed collection with at
// least one chunk.
func (x *Index) HasPaper(paperID string) bool {
	collection := x.db.GetCollection(collectionName(paperID), x.embedFunc)
	return collection != nil && collection.Count() > 0
}

// Query runs a similarity search within one paper's collection and returns
// the chunk contents, best match first. An unindexed paper yields no
// results rather than an error.
func (x *Index) Query(ctx context.Context, paperID, query string, k int) ([]string, error) {
	collection := x.db.GetCollection(collectionName(paperID), x.embedFunc)
	if collection == nil {
		return nil, nil
	}

	count := collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying paper %s: %w", paperID, err)
	}

	contents := make([]string, len(results))
	for i, r := range results {
		contents[i] = r.Content
	}
	return contents, nil
}
