package event

// ChatMessageData is the data for chat.message events, published after
// an assistant reply is stored.
type ChatMessageData struct {
	SessionID string `json:"session_id"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
}

// ChatProactiveData is the data for chat.proactive events.
type ChatProactiveData struct {
	PersonaID       string `json:"persona_id"`
	TargetProfileID string `json:"target_profile_id,omitempty"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
}

// SessionClearedData is the data for chat.session_cleared events.
type SessionClearedData struct {
	SessionID string `json:"session_id"`
}

// RAGSearchData is the data for rag.search events.
type RAGSearchData struct {
	Query   string `json:"query"`
	Results int    `json:"results"`
}
