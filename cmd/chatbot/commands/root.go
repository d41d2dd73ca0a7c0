// Package commands implements the chatbot CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	configFile string
	logLevel   string
	logPretty  bool
)

var rootCmd = &cobra.Command{
	Use:   "chatbot",
	Short: "Conversational assistant with pluggable LLM backends",
	Long: `Chatbot is a conversational assistant service with pluggable LLM
backends (Ollama, HuggingFace, Google Gemini), bounded session memory
and retrieval over a local knowledge base.

Run 'chatbot serve' to start the HTTP API, or 'chatbot ingest' to load
documents into the knowledge base.`,
	Version: Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	cobra.OnInitialize(func() {
		// Credentials such as GEMINI_API_KEY and HF_TOKEN usually live
		// in a .env file next to the binary.
		_ = godotenv.Load()
	})

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a config file merged over the defaults")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "Human-readable console logs instead of JSON")

	rootCmd.SetVersionTemplate(fmt.Sprintf("chatbot %s (built %s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupConfig loads the configuration, applies command-line overrides
// and initializes the global logger from the result.
func setupConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}

	cfg, err := config.Load(wd, configFile)
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	if logPretty {
		cfg.App.LogPretty = true
	}

	logging.Setup(logging.Config{
		Level:  cfg.App.LogLevel,
		Pretty: cfg.App.LogPretty,
	})

	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
