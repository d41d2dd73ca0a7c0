package rag

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"
)

// hashEmbedder generates deterministic unit vectors from a text hash, so
// identical texts match with similarity 1 and tests need no API.
type hashEmbedder struct {
	dimensions int
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dimensions: 64}
}

func (m *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, m.dimensions)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
		norm += float64(vec[i]) * float64(vec[i])
	}
	scale := float32(math.Sqrt(norm))
	if scale == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= scale
	}
	return vec, nil
}

func (m *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(t.TempDir(), "test_knowledge", newHashEmbedder())
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	return ix
}

var testDocs = []Document{
	{ID: "1", Content: "O limite do cartão pode ser ajustado no aplicativo.", Source: "/docs/manual-cartao.pdf", Page: 3},
	{ID: "2", Content: "Dívidas podem ser renegociadas com desconto à vista.", Source: "/docs/renegociacao.pdf", Page: 12},
	{ID: "3", Content: "O boleto vence todo dia 10."},
}

func TestIndexAddAndSearch(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	if got := ix.Count(); got != 0 {
		t.Fatalf("Count() = %d on a fresh index", got)
	}
	if err := ix.Add(ctx, testDocs); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got := ix.Count(); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}

	got, err := ix.Search(ctx, testDocs[1].Content, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	wantFirst := "--- Trecho 1 ---\n" + testDocs[1].Content
	if !strings.HasPrefix(got, wantFirst) {
		t.Errorf("Search() = %q, want prefix %q", got, wantFirst)
	}
	if !strings.Contains(got, "\n\n--- Trecho 2 ---\n") {
		t.Errorf("Search() missing second excerpt: %q", got)
	}
}

func TestIndexAdd_Empty(t *testing.T) {
	ix := newTestIndex(t)
	if err := ix.Add(context.Background(), nil); err != nil {
		t.Fatalf("Add(nil) error = %v", err)
	}
	if got := ix.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestIndexSearch_EmptyIndex(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()

	got, err := ix.Search(ctx, "qualquer pergunta", 4)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if got != "" {
		t.Errorf("Search() = %q, want empty string", got)
	}

	results, err := ix.SearchWithMetadata(ctx, "qualquer pergunta", 4)
	if err != nil {
		t.Fatalf("SearchWithMetadata() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestIndexSearchWithMetadata(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	if err := ix.Add(ctx, testDocs); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	results, err := ix.SearchWithMetadata(ctx, testDocs[0].Content, 1)
	if err != nil {
		t.Fatalf("SearchWithMetadata() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	r := results[0]
	if r.Content != testDocs[0].Content {
		t.Errorf("Content = %q", r.Content)
	}
	if r.Source != "manual-cartao.pdf" {
		t.Errorf("Source = %q, want basename only", r.Source)
	}
	if r.Page != 3 {
		t.Errorf("Page = %d, want 3", r.Page)
	}
	if r.Score < 0.99 {
		t.Errorf("Score = %f for an exact match", r.Score)
	}
}

func TestIndexSearchWithMetadata_UnknownSource(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	if err := ix.Add(ctx, testDocs); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	results, err := ix.SearchWithMetadata(ctx, testDocs[2].Content, 1)
	if err != nil {
		t.Fatalf("SearchWithMetadata() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Source != "Desconhecido" {
		t.Errorf("Source = %q, want Desconhecido", results[0].Source)
	}
	if results[0].Page != 0 {
		t.Errorf("Page = %d, want 0", results[0].Page)
	}
}

func TestIndexSearch_KLargerThanCount(t *testing.T) {
	ix := newTestIndex(t)
	ctx := context.Background()
	if err := ix.Add(ctx, testDocs); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := ix.Search(ctx, "renegociar dívida", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if n := strings.Count(got, "--- Trecho"); n != 3 {
		t.Errorf("got %d excerpts, want 3 (k clamped to index size)", n)
	}
}

func TestIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	emb := newHashEmbedder()
	ctx := context.Background()

	ix, err := OpenIndex(dir, "test_knowledge", emb)
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	if err := ix.Add(ctx, testDocs[:2]); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reopened, err := OpenIndex(dir, "test_knowledge", emb)
	if err != nil {
		t.Fatalf("OpenIndex() after reopen error = %v", err)
	}
	if got := reopened.Count(); got != 2 {
		t.Fatalf("Count() after reopen = %d, want 2", got)
	}

	results, err := reopened.SearchWithMetadata(ctx, testDocs[0].Content, 1)
	if err != nil {
		t.Fatalf("SearchWithMetadata() error = %v", err)
	}
	if len(results) != 1 || results[0].Content != testDocs[0].Content {
		t.Errorf("reopened index did not return the stored document: %+v", results)
	}
}
