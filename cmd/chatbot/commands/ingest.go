package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/internal/rag"
)

var (
	ingestWatch     bool
	ingestBatchSize int
	ingestPause     int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths...]",
	Short: "Load documents into the knowledge base",
	Long: `Extract text from the given files or directories (.pdf, .txt, .md,
.html), split it into chunks, embed the chunks and store them in the
vector index used by /rag/search.

Uploads run in paced batches so free-tier embedding quotas survive
large documents. With --watch the command keeps running and re-ingests
files as they change.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "Keep running and re-ingest files as they change")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "Chunks per upload batch (overrides config)")
	ingestCmd.Flags().IntVar(&ingestPause, "pause", -1, "Seconds to wait between batches (overrides config)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := setupConfig()
	if err != nil {
		return err
	}
	if ingestBatchSize > 0 {
		cfg.RAG.IngestBatchSize = ingestBatchSize
	}
	if ingestPause >= 0 {
		cfg.RAG.IngestPauseSeconds = ingestPause
	}

	if cfg.Provider.Google.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY não configurado: a ingestão precisa da API de embeddings")
	}

	log := logging.Component("cli")

	embedder := rag.NewGeminiEmbedder(cfg.Provider.Google.APIKey, cfg.RAG.EmbeddingModel)
	index, err := rag.OpenIndex(cfg.RAG.IndexPath, cfg.RAG.Collection, embedder)
	if err != nil {
		return err
	}

	ingestor := rag.NewIngestor(index, embedder, cfg.RAG)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	total := 0
	failed := 0
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			log.Error().Str("path", path).Msg("path not found")
			failed++
			continue
		}

		var chunks int
		if info.IsDir() {
			chunks, err = ingestor.IngestDir(ctx, path)
		} else {
			chunks, err = ingestor.IngestFile(ctx, path)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("path", path).Msg("ingestion failed")
			failed++
			continue
		}

		log.Info().Str("path", path).Int("chunks", chunks).Msg("ingested")
		total += chunks
	}

	log.Info().
		Int("chunks", total).
		Int("failed", failed).
		Int("indexed", index.Count()).
		Msg("ingestion finished")

	if !ingestWatch {
		if total == 0 && failed > 0 {
			return fmt.Errorf("nenhum documento ingerido (%d caminhos falharam)", failed)
		}
		return nil
	}

	watchers := make([]*rag.Watcher, 0, len(args))
	for _, dir := range watchDirs(args) {
		w, err := rag.NewWatcher(ingestor, dir)
		if err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("failed to watch directory")
			continue
		}
		w.Start()
		watchers = append(watchers, w)
		log.Info().Str("dir", dir).Msg("watching for changes")
	}
	if len(watchers) == 0 {
		return fmt.Errorf("nenhum diretório para observar")
	}

	<-ctx.Done()

	for _, w := range watchers {
		if err := w.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop watcher")
		}
	}
	log.Info().Msg("watch stopped")
	return nil
}

// watchDirs maps the ingest arguments to the directories to observe:
// directories as given, plain files by their parent.
func watchDirs(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, path := range paths {
		dir := path
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			dir = filepath.Dir(path)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
