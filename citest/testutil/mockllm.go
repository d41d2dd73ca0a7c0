package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockOllama is an HTTP server that mimics the Ollama API, so the real
// provider code runs end to end without a local model.
type MockOllama struct {
	server *httptest.Server

	mu         sync.Mutex
	models     []string
	requests   []ChatCall
	failStatus int
}

// ChatCall records one /api/chat request for verification.
type ChatCall struct {
	Timestamp time.Time
	Model     string
	Messages  []ChatCallMessage
}

// ChatCallMessage is one entry of a recorded message list.
type ChatCallMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewMockOllama starts a mock backend serving the given models. With no
// arguments it serves the default test model qwen2.5:0.5b.
func NewMockOllama(models ...string) *MockOllama {
	if len(models) == 0 {
		models = []string{"qwen2.5:0.5b"}
	}
	m := &MockOllama{models: models}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", m.handleChat)
	mux.HandleFunc("/api/tags", m.handleTags)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the mock server's base URL.
func (m *MockOllama) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockOllama) Close() {
	m.server.Close()
}

// Requests returns a copy of all recorded /api/chat requests.
func (m *MockOllama) Requests() []ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatCall, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent /api/chat request, or nil.
func (m *MockOllama) LastRequest() *ChatCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	call := m.requests[len(m.requests)-1]
	return &call
}

// Reset clears the recorded requests.
func (m *MockOllama) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// FailWith makes /api/chat answer with the given status until Recover
// is called.
func (m *MockOllama) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
}

// Recover restores normal /api/chat behavior after FailWith.
func (m *MockOllama) Recover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = 0
}

func (m *MockOllama) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Model    string            `json:"model"`
		Messages []ChatCallMessage `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.requests = append(m.requests, ChatCall{
		Timestamp: time.Now(),
		Model:     req.Model,
		Messages:  req.Messages,
	})
	failStatus := m.failStatus
	known := m.hasModelLocked(req.Model)
	m.mu.Unlock()

	if failStatus != 0 {
		http.Error(w, `{"error":"mock backend failure"}`, failStatus)
		return
	}
	if !known {
		http.Error(w, `{"error":"model '`+req.Model+`' not found"}`, http.StatusNotFound)
		return
	}

	reply := scriptedReply(req.Messages)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"model": req.Model,
		"message": map[string]string{
			"role":    "assistant",
			"content": reply,
		},
		"done": true,
	})
}

func (m *MockOllama) handleTags(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	models := make([]map[string]string, len(m.models))
	for i, name := range m.models {
		models[i] = map[string]string{"name": name}
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"models": models})
}

func (m *MockOllama) hasModelLocked(model string) bool {
	base := strings.SplitN(model, ":", 2)[0]
	for _, name := range m.models {
		if strings.Contains(name, base) {
			return true
		}
	}
	return false
}

// scriptedReply generates a canned answer from the last user message.
// The name script reads earlier turns, so specs can verify that history
// really reaches the backend and that old turns fall out of the window.
func scriptedReply(messages []ChatCallMessage) string {
	prompt := lastUserMessage(messages)
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "meu nome é"):
		return "Prazer em conhecer você, " + extractName(prompt) + "!"

	case strings.Contains(lower, "qual é o meu nome"):
		for i := len(messages) - 2; i >= 0; i-- {
			if messages[i].Role != "user" {
				continue
			}
			if strings.Contains(strings.ToLower(messages[i].Content), "meu nome é") {
				return "Seu nome é " + extractName(messages[i].Content) + "."
			}
		}
		return "Você ainda não me disse seu nome."

	case strings.Contains(lower, "2+2") || strings.Contains(lower, "2 + 2"):
		return "4"

	case strings.Contains(lower, "olá") || strings.Contains(lower, "oi"):
		return "Olá! Como posso ajudar com suas finanças?"

	default:
		return "Entendido. Vamos organizar suas finanças."
	}
}

func lastUserMessage(messages []ChatCallMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func extractName(prompt string) string {
	lower := strings.ToLower(prompt)
	idx := strings.Index(lower, "meu nome é")
	if idx < 0 {
		return ""
	}
	rest := prompt[idx+len("meu nome é"):]
	return strings.Trim(rest, " .!?")
}
