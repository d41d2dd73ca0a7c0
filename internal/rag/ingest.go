package rag

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/cenkalti/backoff/v4"
	"github.com/ledongthuc/pdf"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
)

const (
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize = 1000
	// ChunkOverlap is how many characters neighboring chunks share.
	ChunkOverlap = 200
	// EmbedMaxRetries is the maximum number of retries per embedding batch.
	EmbedMaxRetries = 3
	// EmbedRetryInitialInterval is the initial interval for exponential backoff.
	EmbedRetryInitialInterval = time.Second
	// EmbedRetryMaxInterval is the maximum interval for exponential backoff.
	EmbedRetryMaxInterval = 30 * time.Second
	// EmbedRetryMaxElapsedTime is the maximum total time for retries.
	EmbedRetryMaxElapsedTime = 2 * time.Minute
)

// newEmbedBackoff creates an exponential backoff with jitter for embedding
// API retries, honoring context cancellation.
func newEmbedBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = EmbedRetryInitialInterval
	b.MaxInterval = EmbedRetryMaxInterval
	b.MaxElapsedTime = EmbedRetryMaxElapsedTime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, EmbedMaxRetries), ctx)
}

// Ingestor loads documents, splits them into chunks, embeds the chunks in
// batches and stores them in the index. Batches are paced to stay inside
// the free-tier quota of the embedding API.
type Ingestor struct {
	index     *Index
	embedder  Embedder
	splitter  *Splitter
	batchSize int
	pause     time.Duration
	log       zerolog.Logger
}

func NewIngestor(index *Index, embedder Embedder, cfg config.RAGConfig) *Ingestor {
	batch := cfg.IngestBatchSize
	if batch < 1 {
		batch = 1
	}
	return &Ingestor{
		index:     index,
		embedder:  embedder,
		splitter:  NewSplitter(ChunkSize, ChunkOverlap),
		batchSize: batch,
		pause:     time.Duration(cfg.IngestPauseSeconds) * time.Second,
		log:       logging.Component("rag.ingest"),
	}
}

// IngestFile extracts text from a single file, splits it and uploads the
// chunks. It returns how many chunks were stored.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	pages, err := extract(path)
	if err != nil {
		return 0, err
	}

	var docs []Document
	for _, pg := range pages {
		for _, chunk := range in.splitter.Split(pg.text) {
			docs = append(docs, Document{
				ID:      ulid.Make().String(),
				Content: chunk,
				Source:  path,
				Page:    pg.number,
			})
		}
	}
	if len(docs) == 0 {
		in.log.Warn().Str("file", path).Msg("no text extracted, skipping")
		return 0, nil
	}

	totalBatches := (len(docs) + in.batchSize - 1) / in.batchSize
	in.log.Info().
		Str("file", path).
		Int("chunks", len(docs)).
		Int("batches", totalBatches).
		Msg("ingesting file")

	for start := 0; start < len(docs); start += in.batchSize {
		end := start + in.batchSize
		if end > len(docs) {
			end = len(docs)
		}

		if err := in.uploadBatch(ctx, docs[start:end]); err != nil {
			return start, fmt.Errorf("failed to ingest batch %d/%d of %s: %w",
				start/in.batchSize+1, totalBatches, path, err)
		}
		in.log.Info().
			Int("batch", start/in.batchSize+1).
			Int("batches", totalBatches).
			Int("stored", end).
			Msg("batch stored")

		// Pace the API only between batches, never after the last one.
		if end < len(docs) && in.pause > 0 {
			in.log.Info().Dur("pause", in.pause).Msg("waiting before next batch to respect API quota")
			select {
			case <-ctx.Done():
				return end, ctx.Err()
			case <-time.After(in.pause):
			}
		}
	}
	return len(docs), nil
}

// IngestDir ingests every supported file under dir. A file that fails is
// logged and skipped so one bad document does not sink the whole run.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && SupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)

	total := 0
	failed := 0
	for _, path := range files {
		n, err := in.IngestFile(ctx, path)
		total += n
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			in.log.Error().Err(err).Str("file", path).Msg("failed to ingest file")
			failed++
		}
	}
	if failed > 0 && total == 0 {
		return 0, fmt.Errorf("nenhum documento ingerido (%d arquivos falharam)", failed)
	}
	return total, nil
}

func (in *Ingestor) uploadBatch(ctx context.Context, batch []Document) error {
	texts := make([]string, len(batch))
	for i, d := range batch {
		texts[i] = d.Content
	}

	var vectors [][]float32
	op := func() error {
		var err error
		vectors, err = in.embedder.EmbedBatch(ctx, texts)
		return err
	}
	if err := backoff.Retry(op, newEmbedBackoff(ctx)); err != nil {
		return err
	}

	for i := range batch {
		batch[i].Embedding = vectors[i]
	}
	return in.index.Add(ctx, batch)
}

// SupportedFile reports whether the ingestor knows how to extract text
// from the given file.
func SupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".html", ".htm":
		return true
	}
	return false
}

// pageText is one extracted unit of text. PDF pages are numbered from 1;
// formats without pages use 0.
type pageText struct {
	number int
	text   string
}

func extract(path string) ([]pageText, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return extractPDF(path)
	case ".html", ".htm":
		text, err := extractHTML(path)
		if err != nil {
			return nil, err
		}
		return []pageText{{text: text}}, nil
	case ".txt", ".md":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return []pageText{{text: string(raw)}}, nil
	default:
		return nil, fmt.Errorf("formato não suportado: %s (use .pdf, .txt, .md ou .html)", ext)
	}
}

func extractPDF(path string) ([]pageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	var pages []pageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// Skip pages the parser cannot decode.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, pageText{number: i, text: text})
	}
	return pages, nil
}

func extractHTML(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		HorizontalRule:   "---",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		EmDelimiter:      "*",
	})

	// Remove non-content elements
	converter.Remove("script", "style", "meta", "link")

	markdown, err := converter.ConvertString(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to convert %s: %w", path, err)
	}
	return markdown, nil
}
