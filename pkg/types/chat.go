// Package types provides the wire-level data types for the chatbot API.
// Field names are snake_case, matching what the bundled frontends consume.
package types

// Message roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one prior exchange handed to a provider, stripped of
// storage metadata.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	// ModelOverride selects a different model for this call only.
	ModelOverride string `json:"model_override,omitempty"`
}

// ChatResponse is the reply to a reactive chat turn. Model is the
// override when one was supplied, else the provider's configured model.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
}

// HistoryMessage is one stored message as exposed over HTTP.
type HistoryMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// HistoryResponse is the body of GET /chat/{session_id}/history.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}
