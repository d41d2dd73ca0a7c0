package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/DanielPonttes/Chatbot-generico/internal/event"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Result window for knowledge-base queries.
const (
	defaultSearchK = 4
	maxSearchK     = 20
)

// ragSearch handles POST /rag/search: raw vector search against the
// knowledge base, used by the retrieval inspector frontend.
func (s *Server) ragSearch(w http.ResponseWriter, r *http.Request) {
	var req types.RAGSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, ErrKindValidation, "Corpo da requisição inválido.")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusUnprocessableEntity, ErrKindValidation, "query é obrigatória.")
		return
	}

	k := req.K
	if k <= 0 {
		k = defaultSearchK
	}
	if k > maxSearchK {
		k = maxSearchK
	}

	if s.index == nil {
		writeError(w, http.StatusInternalServerError, ErrKindRAGSearch,
			"Base de conhecimento não configurada. Defina GEMINI_API_KEY para habilitar a busca.")
		return
	}

	results, err := s.index.SearchWithMetadata(r.Context(), req.Query, k)
	if err != nil {
		s.log.Error().Err(err).Str("query", req.Query).Msg("knowledge base search failed")
		writeError(w, http.StatusInternalServerError, ErrKindRAGSearch, err.Error())
		return
	}

	event.Publish(event.Event{
		Type: event.RAGSearch,
		Data: event.RAGSearchData{
			Query:   req.Query,
			Results: len(results),
		},
	})

	writeJSON(w, http.StatusOK, types.RAGSearchResponse{
		Results:   results,
		QueryEcho: req.Query,
	})
}
