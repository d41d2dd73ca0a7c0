package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/internal/memory"
	"github.com/DanielPonttes/Chatbot-generico/internal/persona"
	"github.com/DanielPonttes/Chatbot-generico/internal/provider"
	"github.com/DanielPonttes/Chatbot-generico/internal/rag"
	"github.com/DanielPonttes/Chatbot-generico/internal/server"
)

// shutdownTimeout bounds how long in-flight requests may drain after
// SIGINT or SIGTERM.
const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatbot HTTP server",
	Long: `Start the chatbot HTTP API: reactive and proactive chat, session
history, persona catalog, knowledge-base search and the SSE activity
stream.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setupConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	log := logging.Component("cli")
	log.Info().
		Str("version", Version).
		Str("provider", cfg.Provider.Name).
		Str("model", cfg.ModelFor(cfg.Provider.Name)).
		Msg("starting chatbot")

	store, err := memory.NewStore(cfg.Memory)
	if err != nil {
		return err
	}
	defer store.Close()

	catalog, err := persona.LoadCatalog(cfg.App.PersonasFile)
	if err != nil {
		return err
	}

	registry := provider.NewRegistry(cfg.Provider)
	defer registry.ReleaseAll()

	// Retrieval needs the Gemini embedding API. Without a key the
	// server still runs; /rag/search reports the knowledge base as
	// unconfigured.
	var index server.Searcher
	if cfg.Provider.Google.APIKey != "" {
		ix, err := rag.OpenIndex(cfg.RAG.IndexPath, cfg.RAG.Collection,
			rag.NewGeminiEmbedder(cfg.Provider.Google.APIKey, cfg.RAG.EmbeddingModel))
		if err != nil {
			return err
		}
		log.Info().
			Int("documents", ix.Count()).
			Str("path", cfg.RAG.IndexPath).
			Msg("knowledge base open")
		index = ix
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, knowledge-base search disabled")
	}

	srv := server.New(cfg, registry, store, persona.NewService(catalog), index)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
