package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/DanielPonttes/Chatbot-generico/internal/event"
	"github.com/DanielPonttes/Chatbot-generico/internal/persona"
	"github.com/DanielPonttes/Chatbot-generico/internal/provider"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Validation limits, counted in characters.
const (
	maxSessionIDChars = 100
	maxMessageChars   = 4000
)

// chat handles POST /chat: one reactive conversation turn. History is
// read before the turn and both sides are persisted only after the
// provider answered, so a failed generation leaves the session as it
// was.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrKindValidation, "Corpo da requisição inválido.")
		return
	}
	if msg := validateChatRequest(&req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, ErrKindValidation, msg)
		return
	}

	ctx := r.Context()
	s.log.Info().
		Str("session", req.SessionID).
		Int("message_length", len(req.Message)).
		Msg("chat request")

	prov, err := s.registry.Get()
	if err != nil {
		s.writeProviderError(w, err)
		return
	}

	history, err := s.store.FormattedHistory(ctx, req.SessionID)
	if err != nil {
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("failed to load history")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
		return
	}

	reply, err := prov.Generate(ctx, &provider.GenerateRequest{
		Prompt:        req.Message,
		History:       history,
		ModelOverride: req.ModelOverride,
	})
	if err != nil {
		s.writeProviderError(w, err)
		return
	}

	if err := s.store.Append(ctx, req.SessionID, types.RoleUser, req.Message); err != nil {
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("failed to save user message")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
		return
	}
	if err := s.store.Append(ctx, req.SessionID, types.RoleAssistant, reply); err != nil {
		s.log.Error().Err(err).Str("session", req.SessionID).Msg("failed to save assistant message")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
		return
	}

	s.log.Info().
		Str("session", req.SessionID).
		Int("reply_length", len(reply)).
		Msg("chat response")

	model := req.ModelOverride
	if model == "" {
		model = prov.Model()
	}

	event.Publish(event.Event{
		Type: event.ChatMessage,
		Data: event.ChatMessageData{
			SessionID: req.SessionID,
			Provider:  string(prov.Name()),
			Model:     model,
		},
	})

	writeJSON(w, http.StatusOK, types.ChatResponse{
		SessionID: req.SessionID,
		Reply:     reply,
		Provider:  string(prov.Name()),
		Model:     model,
	})
}

// proactiveChat handles POST /chat/proactive: a persona-voiced opener
// generated without any session history.
func (s *Server) proactiveChat(w http.ResponseWriter, r *http.Request) {
	var req types.ProactiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrKindValidation, "Corpo da requisição inválido.")
		return
	}
	if req.PersonaID == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrKindValidation, "persona_id é obrigatório.")
		return
	}

	prov, err := s.registry.Get()
	if err != nil {
		s.writeProviderError(w, err)
		return
	}

	reply, err := s.personas.ProactiveMessage(r.Context(), prov, &req)
	if err != nil {
		var notFound *persona.NotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusNotFound, ErrKindPersonaNotFound, err.Error())
			return
		}
		s.writeProviderError(w, err)
		return
	}

	model := req.ModelOverride
	if model == "" {
		model = prov.Model()
	}

	event.Publish(event.Event{
		Type: event.ChatProactive,
		Data: event.ChatProactiveData{
			PersonaID:       req.PersonaID,
			TargetProfileID: req.TargetProfileID,
			Provider:        string(prov.Name()),
			Model:           model,
		},
	})

	writeJSON(w, http.StatusOK, types.ProactiveResponse{
		Reply:    reply,
		Provider: string(prov.Name()),
		Model:    model,
	})
}

// getHistory handles GET /chat/{sessionID}/history. Unknown sessions
// read as an empty list rather than 404.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	msgs, err := s.store.History(r.Context(), sessionID, 0)
	if err != nil {
		s.log.Error().Err(err).Str("session", sessionID).Msg("failed to load history")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
		return
	}

	out := make([]types.HistoryMessage, len(msgs))
	for i, m := range msgs {
		out[i] = types.HistoryMessage{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, types.HistoryResponse{
		SessionID: sessionID,
		Messages:  out,
	})
}

// clearSession handles DELETE /chat/{sessionID}.
func (s *Server) clearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.store.Clear(r.Context(), sessionID); err != nil {
		s.log.Error().Err(err).Str("session", sessionID).Msg("failed to clear session")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
		return
	}

	event.Publish(event.Event{
		Type: event.ChatSessionCleared,
		Data: event.SessionClearedData{SessionID: sessionID},
	})

	w.WriteHeader(http.StatusNoContent)
}

// validateChatRequest returns a human-readable validation message, or
// empty when the request is acceptable.
func validateChatRequest(req *types.ChatRequest) string {
	if n := utf8.RuneCountInString(req.SessionID); n < 1 || n > maxSessionIDChars {
		return "session_id deve ter entre 1 e 100 caracteres."
	}
	if n := utf8.RuneCountInString(req.Message); n < 1 || n > maxMessageChars {
		return "message deve ter entre 1 e 4000 caracteres."
	}
	return ""
}

// writeProviderError maps provider failures onto the error taxonomy.
// Configuration problems surface as internal errors here; /health is
// the endpoint that explains them.
func (s *Server) writeProviderError(w http.ResponseWriter, err error) {
	var (
		unavailable *provider.UnavailableError
		notFound    *provider.ModelNotFoundError
		backend     *provider.BackendError
		cfgErr      *provider.ConfigError
	)
	switch {
	case errors.As(err, &unavailable):
		s.log.Error().Err(err).Msg("provider not available")
		writeError(w, http.StatusServiceUnavailable, ErrKindProviderUnavailable, err.Error())
	case errors.As(err, &notFound):
		s.log.Error().Err(err).Msg("model not found")
		writeError(w, http.StatusServiceUnavailable, ErrKindModelNotFound, err.Error())
	case errors.As(err, &backend):
		s.log.Error().Err(err).Msg("provider backend error")
		writeError(w, http.StatusInternalServerError, ErrKindLLM, err.Error())
	case errors.As(err, &cfgErr):
		s.log.Error().Err(err).Msg("provider misconfigured")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
	default:
		s.log.Error().Err(err).Msg("unexpected provider failure")
		writeError(w, http.StatusInternalServerError, ErrKindInternal, internalErrorMessage)
	}
}
