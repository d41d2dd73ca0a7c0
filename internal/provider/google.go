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

const (
	googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	googleTimeout = 60 * time.Second
)

// GoogleProvider talks to the Gemini generateContent API. Unlike the
// Hugging Face backend it has a native chat primitive: history is sent
// role-mapped, with the assistant role renamed to "model".
type GoogleProvider struct {
	httpSettings
	apiKey       string
	model        string
	systemPrompt string
	log          zerolog.Logger
}

// NewGoogle creates a Gemini provider. The API key is required; the
// Registry validates it before construction.
func NewGoogle(cfg config.GoogleConfig, systemPrompt string, opts ...Option) *GoogleProvider {
	p := &GoogleProvider{
		httpSettings: httpSettings{
			baseURL: googleBaseURL,
			timeout: googleTimeout,
		},
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		systemPrompt: systemPrompt,
		log:          logging.Component("provider.google"),
	}
	p.apply(opts)
	return p
}

func (p *GoogleProvider) Name() Name {
	return NameGoogle
}

func (p *GoogleProvider) Model() string {
	return p.model
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleGenerateRequest struct {
	SystemInstruction *googleContent  `json:"systemInstruction,omitempty"`
	Contents          []googleContent `json:"contents"`
}

type googleCandidate struct {
	Content      *googleContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type googleGenerateResponse struct {
	Candidates []googleCandidate `json:"candidates"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate seeds a generateContent call with the role-mapped history and
// the current prompt. A model override builds the call URL for that model
// without touching the configured one.
func (p *GoogleProvider) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	contents := make([]googleContent, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == types.RoleAssistant {
			role = "model"
		}
		contents = append(contents, googleContent{Role: role, Parts: []googlePart{{Text: turn.Content}}})
	}
	contents = append(contents, googleContent{Role: "user", Parts: []googlePart{{Text: req.Prompt}}})

	body := googleGenerateRequest{Contents: contents}
	if p.systemPrompt != "" {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: p.systemPrompt}}}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	model := p.model
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}
	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", &UnavailableError{
				Provider: NameGoogle,
				Reason:   "Timeout ao aguardar resposta do Google Gemini.",
			}
		}
		return "", &UnavailableError{
			Provider: NameGoogle,
			Reason: "Não foi possível conectar à API do Google Gemini. " +
				"Verifique sua conexão com a internet.",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", p.classifyError(resp.StatusCode, readBodySnippet(resp.Body), model)
	}

	var out googleGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &BackendError{Provider: NameGoogle, Status: resp.StatusCode, Detail: "resposta inválida do Gemini"}
	}

	if len(out.Candidates) == 0 || out.Candidates[0].Content == nil {
		return "", &BackendError{Provider: NameGoogle, Status: resp.StatusCode, Detail: "resposta vazia do Gemini"}
	}

	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String()), nil
}

// classifyError maps a non-200 Gemini answer. Anything carrying a
// not-found signal means the model name is wrong; everything else is
// treated as the backend being unavailable.
func (p *GoogleProvider) classifyError(status int, body, model string) error {
	var apiErr googleErrorResponse
	_ = json.Unmarshal([]byte(body), &apiErr)
	message := apiErr.Error.Message
	if message == "" {
		message = body
	}

	notFound := status == http.StatusNotFound ||
		apiErr.Error.Status == "NOT_FOUND" ||
		strings.Contains(strings.ToLower(message), "not found")
	if notFound {
		return &ModelNotFoundError{
			Provider: NameGoogle,
			Model:    model,
			Reason:   fmt.Sprintf("Modelo '%s' não encontrado no Google Gemini.", model),
		}
	}

	return &UnavailableError{
		Provider: NameGoogle,
		Reason:   fmt.Sprintf("API do Google Gemini indisponível (HTTP %d): %s", status, message),
	}
}

// IsAvailable fetches the configured model's metadata.
func (p *GoogleProvider) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/models/%s", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug().Err(err).Msg("gemini not available")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (p *GoogleProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
