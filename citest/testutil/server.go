package testutil

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/DanielPonttes/Chatbot-generico/internal/config"
	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
	"github.com/DanielPonttes/Chatbot-generico/internal/memory"
	"github.com/DanielPonttes/Chatbot-generico/internal/persona"
	"github.com/DanielPonttes/Chatbot-generico/internal/provider"
	"github.com/DanielPonttes/Chatbot-generico/internal/rag"
	"github.com/DanielPonttes/Chatbot-generico/internal/server"
)

// TestServer wraps a running chatbot server backed by a mock Ollama.
type TestServer struct {
	Server   *server.Server
	BaseURL  string
	Config   *config.Config
	Store    memory.Store
	Registry *provider.Registry
	LLM      *MockOllama
	Index    *rag.Index
	TempDir  string
	port     int
}

// TestServerOption configures TestServer.
type TestServerOption func(*testServerConfig)

type testServerConfig struct {
	useSQLite    bool
	maxMessages  int
	personasFile string
	knowledge    []rag.Document
}

// WithSQLiteStore backs the session memory with a SQLite database in
// the server's temp directory.
func WithSQLiteStore() TestServerOption {
	return func(c *testServerConfig) {
		c.useSQLite = true
	}
}

// WithMaxMessages overrides the per-session history window.
func WithMaxMessages(n int) TestServerOption {
	return func(c *testServerConfig) {
		c.maxMessages = n
	}
}

// WithPersonasFile merges a personas YAML file over the built-ins.
func WithPersonasFile(path string) TestServerOption {
	return func(c *testServerConfig) {
		c.personasFile = path
	}
}

// WithKnowledge seeds the vector index with documents, enabling the
// retrieval endpoints. Embeddings are deterministic hash vectors, so no
// API key is needed.
func WithKnowledge(docs ...rag.Document) TestServerOption {
	return func(c *testServerConfig) {
		c.knowledge = docs
	}
}

// StartTestServer creates and starts a test server.
func StartTestServer(opts ...TestServerOption) (*TestServer, error) {
	tsc := &testServerConfig{}
	for _, opt := range opts {
		opt(tsc)
	}

	logging.Setup(logging.Config{Level: "error"})

	tempDir, err := os.MkdirTemp("", "chatbot-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}

	port, err := findAvailablePort()
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to find available port: %w", err)
	}

	llm := NewMockOllama()

	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = port
	cfg.Server.StaticDir = ""
	cfg.Provider.Ollama.BaseURL = llm.URL()
	if tsc.maxMessages > 0 {
		cfg.Memory.MaxMessages = tsc.maxMessages
	}
	if tsc.useSQLite {
		cfg.Memory.UseSQLite = true
		cfg.Memory.SQLitePath = filepath.Join(tempDir, "conversations.db")
	}

	store, err := memory.NewStore(cfg.Memory)
	if err != nil {
		llm.Close()
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("failed to create memory store: %w", err)
	}

	catalog := persona.NewCatalog()
	if tsc.personasFile != "" {
		catalog, err = persona.LoadCatalog(tsc.personasFile)
		if err != nil {
			store.Close()
			llm.Close()
			os.RemoveAll(tempDir)
			return nil, fmt.Errorf("failed to load personas: %w", err)
		}
	}

	registry := provider.NewRegistry(cfg.Provider)

	var searcher server.Searcher
	var index *rag.Index
	if len(tsc.knowledge) > 0 {
		cfg.RAG.IndexPath = filepath.Join(tempDir, "chroma_db")
		index, err = rag.OpenIndex(cfg.RAG.IndexPath, cfg.RAG.Collection, NewHashEmbedder())
		if err == nil {
			err = index.Add(context.Background(), tsc.knowledge)
		}
		if err != nil {
			store.Close()
			llm.Close()
			os.RemoveAll(tempDir)
			return nil, fmt.Errorf("failed to seed knowledge base: %w", err)
		}
		searcher = index
	}

	srv := server.New(cfg, registry, store, persona.NewService(catalog), searcher)

	go func() {
		_ = srv.Start()
	}()

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	if err := waitForServer(baseURL, 10*time.Second); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		store.Close()
		llm.Close()
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("server failed to start: %w", err)
	}

	return &TestServer{
		Server:   srv,
		BaseURL:  baseURL,
		Config:   cfg,
		Store:    store,
		Registry: registry,
		LLM:      llm,
		Index:    index,
		TempDir:  tempDir,
		port:     port,
	}, nil
}

// Stop shuts down the test server and cleans up.
func (ts *TestServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var firstErr error
	if ts.Server != nil {
		firstErr = ts.Server.Shutdown(ctx)
	}
	if ts.Registry != nil {
		ts.Registry.ReleaseAll()
	}
	if ts.Store != nil {
		if err := ts.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if ts.LLM != nil {
		ts.LLM.Close()
	}
	if ts.TempDir != "" {
		os.RemoveAll(ts.TempDir)
	}
	return firstErr
}

// Client returns a new test client for this server.
func (ts *TestServer) Client() *TestClient {
	return NewTestClient(ts.BaseURL)
}

// SSEClient returns a new SSE client for this server.
func (ts *TestServer) SSEClient() *SSEClient {
	return NewSSEClient(ts.BaseURL)
}

// findAvailablePort finds an available TCP port.
func findAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// waitForServer waits for the health endpoint to answer.
func waitForServer(baseURL string, timeout time.Duration) error {
	client := NewTestClient(baseURL)
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(context.Background(), "/health")
		if err == nil && resp.IsSuccess() {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fmt.Errorf("server not ready after %v", timeout)
}
