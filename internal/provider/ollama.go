package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// ollamaTimeout is generous because small local models can take a while
// to load on their first request.
const ollamaTimeout = 120 * time.Second

// OllamaProvider talks to a local Ollama server.
//
// Recommended lightweight models: qwen2.5:0.5b (~400MB), qwen2.5:1.5b
// (~1GB), llama3.2:1b (~700MB).
type OllamaProvider struct {
	httpSettings
	model        string
	systemPrompt string
	log          zerolog.Logger
}

// NewOllama creates an Ollama provider.
func NewOllama(cfg config.OllamaConfig, systemPrompt string, opts ...Option) *OllamaProvider {
	p := &OllamaProvider{
		httpSettings: httpSettings{
			baseURL: strings.TrimRight(cfg.BaseURL, "/"),
			timeout: ollamaTimeout,
		},
		model:        cfg.Model,
		systemPrompt: systemPrompt,
		log:          logging.Component("provider.ollama"),
	}
	p.apply(opts)
	return p
}

func (p *OllamaProvider) Name() Name {
	return NameOllama
}

func (p *OllamaProvider) Model() string {
	return p.model
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Generate posts the full message list to /api/chat in one non-streaming
// call.
func (p *OllamaProvider) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	messages := make([]ollamaMessage, 0, len(req.History)+2)
	if p.systemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: p.systemPrompt})
	}
	for _, turn := range req.History {
		messages = append(messages, ollamaMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ollamaMessage{Role: types.RoleUser, Content: req.Prompt})

	model := p.model
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", &UnavailableError{
				Provider: NameOllama,
				Reason: fmt.Sprintf(
					"Timeout ao aguardar resposta do Ollama (>%.0fs). O modelo pode estar carregando. Tente novamente.",
					p.timeout.Seconds()),
			}
		}
		return "", &UnavailableError{
			Provider: NameOllama,
			Reason: "Não foi possível conectar ao Ollama. " +
				"Verifique se o Ollama está instalado e rodando. Execute: ollama serve",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", &ModelNotFoundError{
			Provider: NameOllama,
			Model:    model,
			Reason:   fmt.Sprintf("Modelo '%s' não encontrado. Execute: ollama pull %s", model, model),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Provider: NameOllama, Status: resp.StatusCode, Detail: readBodySnippet(resp.Body)}
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &BackendError{Provider: NameOllama, Status: resp.StatusCode, Detail: "resposta inválida do Ollama"}
	}
	return strings.TrimSpace(out.Message.Content), nil
}

// IsAvailable checks that the server answers /api/tags and that the
// configured model is present.
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug().Err(err).Msg("ollama not available")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}

	// Ollama may list "qwen2.5:0.5b" or "qwen2.5:0.5b-latest", so match
	// on the base name before the tag.
	base := strings.SplitN(p.model, ":", 2)[0]
	for _, m := range tags.Models {
		if strings.Contains(m.Name, base) {
			return true
		}
	}
	return false
}

// Close releases idle connections.
func (p *OllamaProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
