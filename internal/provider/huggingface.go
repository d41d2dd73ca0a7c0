package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

const (
	hfInferenceURL = "https://api-inference.huggingface.co/models"
	hfTimeout      = 60 * time.Second

	// hfHistoryWindow bounds how many prior turns go into the flattened
	// prompt, so small models don't blow their context.
	hfHistoryWindow = 4
)

// HuggingFaceProvider talks to the Hugging Face Inference API. The free
// tier is rate limited and has no chat primitive, so conversations are
// flattened into a single labeled prompt.
type HuggingFaceProvider struct {
	httpSettings
	token        string
	model        string
	systemPrompt string
	log          zerolog.Logger
}

// NewHuggingFace creates a Hugging Face provider. The token is required
// for every request; the Registry validates it before construction.
func NewHuggingFace(cfg config.HuggingFaceConfig, systemPrompt string, opts ...Option) *HuggingFaceProvider {
	p := &HuggingFaceProvider{
		httpSettings: httpSettings{
			baseURL: hfInferenceURL,
			timeout: hfTimeout,
		},
		token:        cfg.Token,
		model:        cfg.Model,
		systemPrompt: systemPrompt,
		log:          logging.Component("provider.huggingface"),
	}
	p.apply(opts)
	return p
}

func (p *HuggingFaceProvider) Name() Name {
	return NameHuggingFace
}

func (p *HuggingFaceProvider) Model() string {
	return p.model
}

type hfGenerateRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfGenerated struct {
	GeneratedText string `json:"generated_text"`
}

// flattenPrompt builds the single text blob the inference API expects:
// system context, the last few turns with role labels, the current
// message, and an assistant cue for the model to complete.
func (p *HuggingFaceProvider) flattenPrompt(prompt string, history []types.ChatTurn) string {
	var b strings.Builder

	if p.systemPrompt != "" {
		fmt.Fprintf(&b, "[Sistema]: %s\n\n", p.systemPrompt)
	}

	if len(history) > hfHistoryWindow {
		history = history[len(history)-hfHistoryWindow:]
	}
	for _, turn := range history {
		label := "Usuário"
		if turn.Role == types.RoleAssistant {
			label = "Assistente"
		}
		fmt.Fprintf(&b, "[%s]: %s\n", label, turn.Content)
	}

	fmt.Fprintf(&b, "[Usuário]: %s\n[Assistente]:", prompt)
	return b.String()
}

// Generate posts the flattened prompt to the model's inference endpoint.
func (p *HuggingFaceProvider) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	model := p.model
	if req.ModelOverride != "" {
		model = req.ModelOverride
	}

	payload, err := json.Marshal(hfGenerateRequest{
		Inputs: p.flattenPrompt(req.Prompt, req.History),
		Parameters: hfParameters{
			MaxNewTokens:   256,
			Temperature:    0.7,
			DoSample:       true,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+model, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return "", &UnavailableError{
				Provider: NameHuggingFace,
				Reason:   "Timeout ao aguardar resposta do HuggingFace.",
			}
		}
		return "", &UnavailableError{
			Provider: NameHuggingFace,
			Reason: "Não foi possível conectar à API do HuggingFace. " +
				"Verifique sua conexão com a internet.",
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return "", &UnavailableError{
			Provider: NameHuggingFace,
			Reason:   "Token HuggingFace inválido ou expirado. Verifique seu HF_TOKEN.",
		}
	case http.StatusNotFound:
		return "", &ModelNotFoundError{
			Provider: NameHuggingFace,
			Model:    model,
			Reason:   fmt.Sprintf("Modelo '%s' não encontrado no HuggingFace.", model),
		}
	case http.StatusServiceUnavailable:
		return "", &UnavailableError{
			Provider: NameHuggingFace,
			Reason:   fmt.Sprintf("Modelo '%s' está carregando. Aguarde alguns segundos e tente novamente.", model),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &BackendError{Provider: NameHuggingFace, Status: resp.StatusCode, Detail: readBodySnippet(resp.Body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &BackendError{Provider: NameHuggingFace, Status: resp.StatusCode, Detail: "resposta inválida do HuggingFace"}
	}
	text, err := decodeHFResponse(body)
	if err != nil {
		return "", &BackendError{Provider: NameHuggingFace, Status: resp.StatusCode, Detail: err.Error()}
	}
	return strings.TrimSpace(text), nil
}

// decodeHFResponse normalizes the two shapes the inference API returns, a
// list of generations or a single object, into one string.
func decodeHFResponse(data []byte) (string, error) {
	var list []hfGenerated
	if err := json.Unmarshal(data, &list); err == nil {
		if len(list) == 0 {
			return "", nil
		}
		return list[0].GeneratedText, nil
	}

	var single hfGenerated
	if err := json.Unmarshal(data, &single); err == nil {
		return single.GeneratedText, nil
	}

	return "", fmt.Errorf("resposta inesperada do HuggingFace: %.200s", data)
}

// IsAvailable probes the model endpoint. A 503 still counts as available:
// the API answered, the model is just warming up.
func (p *HuggingFaceProvider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+p.model, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug().Err(err).Msg("huggingface not available")
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

// Close releases idle connections.
func (p *HuggingFaceProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}
