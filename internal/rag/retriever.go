package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Document is one chunk headed for the index. Embedding may be
// precomputed by the ingestor; when absent the collection embeds the
// content itself.
type Document struct {
	ID        string
	Content   string
	Source    string
	Page      int
	Embedding []float32
}

// Index wraps the persistent chromem collection. Queries embed with the
// same function used at ingestion time, so scores are comparable.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	log        zerolog.Logger
}

// OpenIndex opens or creates the persistent index at path.
func OpenIndex(path, collection string, embedder Embedder) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index at %s: %w", path, err)
	}

	col, err := db.GetOrCreateCollection(collection, nil, chromem.EmbeddingFunc(embedder.Embed))
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	}

	log := logging.Component("rag.index")
	log.Info().Str("path", path).Str("collection", collection).Int("documents", col.Count()).Msg("vector index ready")

	return &Index{db: db, collection: col, log: log}, nil
}

// Count reports how many chunks the collection holds.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Add stores documents in the collection. Chunks without a precomputed
// embedding are embedded here, one API call each.
func (ix *Index) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	out := make([]chromem.Document, len(docs))
	for i, d := range docs {
		out[i] = chromem.Document{
			ID:        d.ID,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata: map[string]string{
				"source": d.Source,
				"page":   strconv.Itoa(d.Page),
			},
		}
	}
	if err := ix.collection.AddDocuments(ctx, out, 4); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Search returns the top-k chunks joined into one labeled context
// block, or an empty string when the index has nothing relevant.
func (ix *Index) Search(ctx context.Context, query string, k int) (string, error) {
	results, err := ix.query(ctx, query, k)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", nil
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("--- Trecho %d ---\n%s", i+1, r.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// SearchWithMetadata returns the raw matches with source metadata for
// the retrieval inspector. Source paths are reduced to basenames and
// the index's own similarity score is passed through untouched, in the
// index's own order.
func (ix *Index) SearchWithMetadata(ctx context.Context, query string, k int) ([]types.RetrievalResult, error) {
	results, err := ix.query(ctx, query, k)
	if err != nil {
		return nil, err
	}

	out := make([]types.RetrievalResult, len(results))
	for i, r := range results {
		source := r.Metadata["source"]
		if source == "" {
			source = "Desconhecido"
		}
		page, _ := strconv.Atoi(r.Metadata["page"])
		out[i] = types.RetrievalResult{
			Content: r.Content,
			Source:  filepath.Base(source),
			Page:    page,
			Score:   r.Similarity,
		}
	}
	return out, nil
}

// query clamps k to the collection size; chromem rejects asking for
// more results than documents.
func (ix *Index) query(ctx context.Context, query string, k int) ([]chromem.Result, error) {
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	if k < 1 {
		k = 1
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	return results, nil
}
