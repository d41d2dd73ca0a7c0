package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the error body every endpoint uses: a stable
// machine-readable kind plus a human-readable message.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error kinds
const (
	ErrKindValidation          = "validation_error"
	ErrKindProviderUnavailable = "provider_unavailable"
	ErrKindModelNotFound       = "model_not_found"
	ErrKindLLM                 = "llm_error"
	ErrKindPersonaNotFound     = "persona_not_found"
	ErrKindRAGSearch           = "rag_search_error"
	ErrKindInternal            = "internal_error"
	ErrKindNotFound            = "not_found"
)

// internalErrorMessage hides unexpected failures from clients.
const internalErrorMessage = "Erro interno ao processar mensagem. Verifique os logs."

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: message,
	})
}
