// Package config provides configuration loading for the chatbot service.
//
// Settings are resolved in priority order:
//
//  1. Built-in defaults (tuned for cheap local execution)
//  2. Project config file (chatbot.json or chatbot.jsonc in the working
//     directory, JSONC comments stripped with tidwall/jsonc)
//  3. CHATBOT_CONFIG file override
//  4. Environment variables (highest priority)
//
// Config files support {env:VAR} and {file:path} interpolation, so secrets
// can live outside the file itself.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
)

// Provider backend names accepted in Provider.Name.
const (
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
	ProviderGoogle      = "google"
)

// Config is the root configuration for the service.
type Config struct {
	App      AppConfig      `json:"app"`
	Server   ServerConfig   `json:"server"`
	Provider ProviderConfig `json:"provider"`
	Memory   MemoryConfig   `json:"memory"`
	RAG      RAGConfig      `json:"rag"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Name         string `json:"name"`
	Debug        bool   `json:"debug"`
	LogLevel     string `json:"logLevel"`
	LogPretty    bool   `json:"logPretty"`
	PersonasFile string `json:"personasFile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	StaticDir   string   `json:"staticDir"`
	CORSOrigins []string `json:"corsOrigins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProviderConfig selects and configures the language-model backend.
type ProviderConfig struct {
	// Name is one of ollama, huggingface, google.
	Name string `json:"name"`
	// SystemPrompt defines the bot's baseline behavior and is injected
	// into every generation call.
	SystemPrompt string `json:"systemPrompt"`

	Ollama      OllamaConfig      `json:"ollama"`
	HuggingFace HuggingFaceConfig `json:"huggingface"`
	Google      GoogleConfig      `json:"google"`
}

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	BaseURL string `json:"baseUrl"`
	Model   string `json:"model"`
}

// HuggingFaceConfig configures the Hugging Face Inference API backend.
type HuggingFaceConfig struct {
	Token string `json:"token"`
	Model string `json:"model"`
}

// GoogleConfig configures the Google Gemini backend.
type GoogleConfig struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// MemoryConfig configures the per-session conversation store.
type MemoryConfig struct {
	// MaxMessages caps the stored history per session; oldest messages
	// are evicted first.
	MaxMessages int `json:"maxMessages"`
	// UseSQLite selects the durable backing instead of the in-process map.
	UseSQLite  bool   `json:"useSqlite"`
	SQLitePath string `json:"sqlitePath"`
}

// RAGConfig configures the retrieval index and the ingestion pipeline.
type RAGConfig struct {
	IndexPath      string `json:"indexPath"`
	Collection     string `json:"collection"`
	EmbeddingModel string `json:"embeddingModel"`
	// IngestBatchSize is how many chunks are embedded per upload batch.
	IngestBatchSize int `json:"ingestBatchSize"`
	// IngestPauseSeconds is the pause between batches, sized for
	// free-tier embedding rate limits.
	IngestPauseSeconds int `json:"ingestPauseSeconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "Chatbot Econômico",
			LogLevel: "info",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8000,
			StaticDir:   "./static",
			CORSOrigins: []string{"*"},
		},
		Provider: ProviderConfig{
			Name: ProviderOllama,
			SystemPrompt: "Você é um assistente virtual amigável e prestativo. " +
				"Responda sempre em português brasileiro de forma clara e objetiva.",
			Ollama: OllamaConfig{
				BaseURL: "http://localhost:11434",
				Model:   "qwen2.5:0.5b",
			},
			HuggingFace: HuggingFaceConfig{
				Model: "microsoft/DialoGPT-small",
			},
			Google: GoogleConfig{
				Model: "gemini-3-flash-preview",
			},
		},
		Memory: MemoryConfig{
			MaxMessages: 10,
			SQLitePath:  "./data/conversations.db",
		},
		RAG: RAGConfig{
			IndexPath:          "./chroma_db",
			Collection:         "notifications_knowledge",
			EmbeddingModel:     "gemini-embedding-001",
			IngestBatchSize:    50,
			IngestPauseSeconds: 65,
		},
	}
}

// Load resolves the configuration for the given working directory.
// Extra file paths, such as one named on the command line, are merged
// after the conventional locations and must exist.
func Load(directory string, extraFiles ...string) (*Config, error) {
	cfg := Default()

	loaded := make(map[string]bool)
	loadOnce := func(path, baseDir string) error {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		if loaded[absPath] {
			return nil
		}
		if err := loadFile(path, baseDir, cfg); err != nil {
			return err
		}
		loaded[absPath] = true
		return nil
	}

	if directory != "" {
		for _, name := range []string{"chatbot.json", "chatbot.jsonc"} {
			if err := loadOnce(filepath.Join(directory, name), directory); err != nil {
				return nil, err
			}
		}
	}

	if path := os.Getenv("CHATBOT_CONFIG"); path != "" {
		if err := loadOnce(path, filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	for _, path := range extraFiles {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := loadOnce(path, filepath.Dir(path)); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if cfg.App.Debug && cfg.App.LogLevel == "info" {
		cfg.App.LogLevel = "debug"
	}

	return cfg, nil
}

// ModelFor returns the configured model for a backend name, or "unknown".
func (c *Config) ModelFor(name string) string {
	switch name {
	case ProviderOllama:
		return c.Provider.Ollama.Model
	case ProviderHuggingFace:
		return c.Provider.HuggingFace.Model
	case ProviderGoogle:
		return c.Provider.Google.Model
	default:
		return "unknown"
	}
}

// loadFile merges a single config file into cfg. Missing files are skipped;
// unreadable JSON is an error, since the file was written on purpose.
func loadFile(path, baseDir string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data, baseDir)

	// Unmarshal over the current values: keys present in the file
	// override, absent keys keep their defaults.
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})

	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		path := filePattern.FindStringSubmatch(match)[1]

		if strings.HasPrefix(path, "~/") {
			path = filepath.Join(os.Getenv("HOME"), path[2:])
		} else if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return match
		}

		escaped := strings.ReplaceAll(strings.TrimSpace(string(content)), "\\", "\\\\")
		escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
		escaped = strings.ReplaceAll(escaped, "\n", "\\n")
		escaped = strings.ReplaceAll(escaped, "\r", "\\r")
		escaped = strings.ReplaceAll(escaped, "\t", "\\t")
		return escaped
	})

	return []byte(str)
}

// applyEnvOverrides applies environment variable overrides. Variable names
// match the .env convention used by deployments of this service.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("APP_NAME", &cfg.App.Name)
	setBool("DEBUG", &cfg.App.Debug)
	setString("LOG_LEVEL", &cfg.App.LogLevel)
	setBool("LOG_PRETTY", &cfg.App.LogPretty)
	setString("PERSONAS_FILE", &cfg.App.PersonasFile)

	setString("HOST", &cfg.Server.Host)
	setInt("PORT", &cfg.Server.Port)
	setString("STATIC_DIR", &cfg.Server.StaticDir)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.Server.CORSOrigins = parts
	}

	setString("LLM_PROVIDER", &cfg.Provider.Name)
	setString("BOT_SYSTEM_PROMPT", &cfg.Provider.SystemPrompt)
	setString("OLLAMA_BASE_URL", &cfg.Provider.Ollama.BaseURL)
	setString("OLLAMA_MODEL", &cfg.Provider.Ollama.Model)
	setString("HF_TOKEN", &cfg.Provider.HuggingFace.Token)
	setString("HF_MODEL", &cfg.Provider.HuggingFace.Model)
	setString("GEMINI_API_KEY", &cfg.Provider.Google.APIKey)
	if os.Getenv("GEMINI_API_KEY") == "" {
		// GOOGLE_API_KEY is the common alias; GEMINI_API_KEY wins.
		setString("GOOGLE_API_KEY", &cfg.Provider.Google.APIKey)
	}
	setString("GEMINI_MODEL", &cfg.Provider.Google.Model)

	setInt("MEMORY_MAX_MESSAGES", &cfg.Memory.MaxMessages)
	setBool("USE_SQLITE", &cfg.Memory.UseSQLite)
	setString("SQLITE_PATH", &cfg.Memory.SQLitePath)

	setString("CHROMA_DB_DIR", &cfg.RAG.IndexPath)
	setString("RAG_COLLECTION", &cfg.RAG.Collection)
	setString("EMBEDDING_MODEL", &cfg.RAG.EmbeddingModel)
	setInt("INGEST_BATCH_SIZE", &cfg.RAG.IngestBatchSize)
	setInt("INGEST_PAUSE_SECONDS", &cfg.RAG.IngestPauseSeconds)
}
