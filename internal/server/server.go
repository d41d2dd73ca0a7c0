// Package server provides the HTTP surface of the chatbot: reactive and
// proactive chat, session history, the persona catalog, knowledge-base
// search, health reporting and the SSE activity stream.
package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/internal/memory"
	"github.com/DanielPonttes/Chatbot-generico/internal/persona"
	"github.com/DanielPonttes/Chatbot-generico/internal/provider"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Searcher is the read side of the knowledge base. It is nil when no
// embedding API key is configured; the search endpoint then answers
// with an explanatory error instead of crashing.
type Searcher interface {
	SearchWithMetadata(ctx context.Context, query string, k int) ([]types.RetrievalResult, error)
	Count() int
}

// Server is the HTTP server.
type Server struct {
	cfg      *config.Config
	router   *chi.Mux
	httpSrv  *http.Server
	registry *provider.Registry
	store    memory.Store
	personas *persona.Service
	index    Searcher
	log      zerolog.Logger
}

// New creates a new Server instance wired to the given components.
// index may be nil.
func New(cfg *config.Config, registry *provider.Registry, store memory.Store, personas *persona.Service, index Searcher) *Server {
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		registry: registry,
		store:    store,
		personas: personas,
		index:    index,
		log:      logging.Component("server"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server.
func (s *Server) setupMiddleware() {
	// Request ID
	s.router.Use(middleware.RequestID)

	// Logging
	s.router.Use(middleware.Logger)

	// Recover from panics
	s.router.Use(middleware.Recoverer)

	// Real IP
	s.router.Use(middleware.RealIP)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// staticDir returns the configured static directory when it exists.
func (s *Server) staticDir() (string, bool) {
	dir := s.cfg.Server.StaticDir
	if dir == "" {
		return "", false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No write timeout for SSE
	}

	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("HTTP server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
