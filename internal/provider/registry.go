package provider

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
)

// Registry owns the active provider instance. Construction is lazy and
// guarded so concurrent callers share a single backend; credential
// checks happen here rather than in the constructors, so a missing
// token surfaces as a ConfigError on first use instead of a panic at
// startup.
type Registry struct {
	mu     sync.Mutex
	active Provider
	cfg    config.ProviderConfig
	log    zerolog.Logger
}

func NewRegistry(cfg config.ProviderConfig) *Registry {
	return &Registry{
		cfg: cfg,
		log: logging.Component("provider.registry"),
	}
}

// Get returns the active provider, building it on first call.
func (r *Registry) Get() (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return r.active, nil
	}

	p, err := r.build()
	if err != nil {
		return nil, err
	}

	r.log.Info().
		Str("provider", string(p.Name())).
		Str("model", p.Model()).
		Msg("provider initialized")
	r.active = p
	return p, nil
}

func (r *Registry) build() (Provider, error) {
	switch r.cfg.Name {
	case config.ProviderOllama:
		return NewOllama(r.cfg.Ollama, r.cfg.SystemPrompt), nil

	case config.ProviderHuggingFace:
		if r.cfg.HuggingFace.Token == "" {
			return nil, &ConfigError{
				Provider: NameHuggingFace,
				Reason: "HuggingFace selecionado mas HF_TOKEN não configurado. " +
					"Defina HF_TOKEN no .env ou use LLM_PROVIDER=ollama",
			}
		}
		return NewHuggingFace(r.cfg.HuggingFace, r.cfg.SystemPrompt), nil

	case config.ProviderGoogle:
		if r.cfg.Google.APIKey == "" {
			return nil, &ConfigError{
				Provider: NameGoogle,
				Reason: "Google Gemini selecionado mas GEMINI_API_KEY não configurado. " +
					"Defina GEMINI_API_KEY no .env ou use LLM_PROVIDER=ollama",
			}
		}
		return NewGoogle(r.cfg.Google, r.cfg.SystemPrompt), nil

	default:
		return nil, &ConfigError{
			Provider: Name(r.cfg.Name),
			Reason: fmt.Sprintf("Provider '%s' não reconhecido. "+
				"Use 'ollama', 'huggingface' ou 'google'.", r.cfg.Name),
		}
	}
}

// Install replaces the active provider. Tests use it to inject fakes.
func (r *Registry) Install(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		_ = r.active.Close()
	}
	r.active = p
}

// ReleaseAll closes the active provider and resets the registry so the
// next Get rebuilds from config.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		_ = r.active.Close()
		r.active = nil
	}
}
