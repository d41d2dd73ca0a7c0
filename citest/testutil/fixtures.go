package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DanielPonttes/Chatbot-generico/internal/rag"
)

// RandomString generates a random string of n characters.
func RandomString(n int) string {
	bytes := make([]byte, n/2+1)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:n]
}

// NewSessionID generates a unique session id so specs never share
// conversation state.
func NewSessionID() string {
	return "citest-" + RandomString(12)
}

// KnowledgeDoc builds an index document for WithKnowledge.
func KnowledgeDoc(id, content, source string, page int) rag.Document {
	return rag.Document{ID: id, Content: content, Source: source, Page: page}
}

// TempDir creates a temporary directory.
type TempDir struct {
	Path string
}

// NewTempDir creates a temp directory.
func NewTempDir() (*TempDir, error) {
	path, err := os.MkdirTemp("", "chatbot-test-*")
	if err != nil {
		return nil, err
	}
	return &TempDir{Path: path}, nil
}

// CreateFile creates a file in the temp directory.
func (d *TempDir) CreateFile(name, content string) (string, error) {
	path := filepath.Join(d.Path, name)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Cleanup removes the temp directory and all contents.
func (d *TempDir) Cleanup() {
	os.RemoveAll(d.Path)
}

// RequireEnv checks if required env vars are set.
func RequireEnv(vars ...string) error {
	var missing []string
	for _, v := range vars {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}
