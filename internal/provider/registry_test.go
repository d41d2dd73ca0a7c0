package provider

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
)

// fakeProvider implements Provider for registry tests.
type fakeProvider struct {
	name   Name
	model  string
	closed bool
}

func (f *fakeProvider) Name() Name    { return f.name }
func (f *fakeProvider) Model() string { return f.model }
func (f *fakeProvider) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	return "resposta fixa", nil
}
func (f *fakeProvider) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

func ollamaRegistryConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Name:         config.ProviderOllama,
		SystemPrompt: "teste",
		Ollama:       config.OllamaConfig{BaseURL: "http://localhost:11434", Model: "qwen2.5:0.5b"},
	}
}

func TestRegistryGet_Ollama(t *testing.T) {
	r := NewRegistry(ollamaRegistryConfig())

	p, err := r.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name() != NameOllama {
		t.Errorf("Name() = %q, want ollama", p.Name())
	}

	again, err := r.Get()
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if again != p {
		t.Error("Get should return the same instance on every call")
	}
}

func TestRegistryGet_HuggingFace(t *testing.T) {
	r := NewRegistry(config.ProviderConfig{
		Name:        config.ProviderHuggingFace,
		HuggingFace: config.HuggingFaceConfig{Token: "hf_token", Model: "microsoft/DialoGPT-small"},
	})

	p, err := r.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name() != NameHuggingFace {
		t.Errorf("Name() = %q, want huggingface", p.Name())
	}
}

func TestRegistryGet_HuggingFaceMissingToken(t *testing.T) {
	r := NewRegistry(config.ProviderConfig{
		Name:        config.ProviderHuggingFace,
		HuggingFace: config.HuggingFaceConfig{Model: "microsoft/DialoGPT-small"},
	})

	_, err := r.Get()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if !strings.Contains(err.Error(), "HF_TOKEN") {
		t.Errorf("message should name the missing variable: %q", err.Error())
	}
}

func TestRegistryGet_GoogleMissingKey(t *testing.T) {
	r := NewRegistry(config.ProviderConfig{
		Name:   config.ProviderGoogle,
		Google: config.GoogleConfig{Model: "gemini-3-flash-preview"},
	})

	_, err := r.Get()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("message should name the missing variable: %q", err.Error())
	}
}

func TestRegistryGet_UnknownProvider(t *testing.T) {
	r := NewRegistry(config.ProviderConfig{Name: "openai"})

	_, err := r.Get()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want ConfigError, got %v", err)
	}
	if !strings.Contains(err.Error(), "não reconhecido") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRegistryInstall(t *testing.T) {
	r := NewRegistry(config.ProviderConfig{Name: "huggingface"})

	fake := &fakeProvider{name: "fake", model: "fake-model"}
	r.Install(fake)

	p, err := r.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p != Provider(fake) {
		t.Error("Get should return the installed provider without consulting config")
	}
}

func TestRegistryReleaseAll(t *testing.T) {
	r := NewRegistry(ollamaRegistryConfig())

	fake := &fakeProvider{name: "fake"}
	r.Install(fake)
	r.ReleaseAll()

	if !fake.closed {
		t.Error("ReleaseAll should close the active provider")
	}

	p, err := r.Get()
	if err != nil {
		t.Fatalf("Get after release failed: %v", err)
	}
	if p.Name() != NameOllama {
		t.Errorf("Get should rebuild from config, got %q", p.Name())
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	r := NewRegistry(ollamaRegistryConfig())

	results := make(chan Provider, 10)
	for i := 0; i < 10; i++ {
		go func() {
			p, err := r.Get()
			if err != nil {
				t.Errorf("Get failed: %v", err)
			}
			results <- p
		}()
	}

	first := <-results
	for i := 1; i < 10; i++ {
		if p := <-results; p != first {
			t.Error("concurrent Gets must share one instance")
		}
	}
}
