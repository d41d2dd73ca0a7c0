package testutil

import (
	"context"
	"hash/fnv"
	"math"
)

// HashEmbedder generates deterministic unit vectors from a text hash.
// Identical texts match with similarity 1, so retrieval specs run
// without an embedding API.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder creates a deterministic embedder.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{dimensions: 64}
}

func (m *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
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

func (m *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}
