package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	r := s.router

	// Chat routes
	r.Post("/chat", s.chat)
	r.Post("/chat/proactive", s.proactiveChat)
	r.Route("/chat/{sessionID}", func(r chi.Router) {
		r.Get("/history", s.getHistory)
		r.Delete("/", s.clearSession)
	})

	// Persona catalog
	r.Get("/personas", s.listPersonas)
	r.Get("/target-profiles", s.listTargetProfiles)

	// Knowledge base
	r.Post("/rag/search", s.ragSearch)

	// Health
	r.Get("/health", s.health)

	// Event streaming (SSE)
	r.Get("/events", s.events)

	// Static UI, when a directory is configured and present
	if dir, ok := s.staticDir(); ok {
		s.log.Info().Str("dir", dir).Msg("serving static files")
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, ErrKindNotFound, "Rota não encontrada.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrKindNotFound, "Método não permitido para esta rota.")
	})
}
