package provider

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// Name identifies a backend.
type Name string

// Supported backends.
const (
	NameOllama      Name = "ollama"
	NameHuggingFace Name = "huggingface"
	NameGoogle      Name = "google"
)

// Provider is the uniform contract over the language-model backends.
type Provider interface {
	// Name returns the stable backend identifier.
	Name() Name

	// Model returns the currently configured model.
	Model() string

	// Generate produces a reply for the latest user prompt given the
	// prior turns. The returned text is whitespace-trimmed.
	Generate(ctx context.Context, req *GenerateRequest) (string, error)

	// IsAvailable reports whether the backend answers its liveness
	// probe. It never fails; any error reads as false.
	IsAvailable(ctx context.Context) bool

	// Close releases transport resources. Safe to call more than once.
	Close() error
}

// GenerateRequest carries one generation call.
type GenerateRequest struct {
	// Prompt is the latest user message.
	Prompt string
	// History holds prior turns in chronological order.
	History []types.ChatTurn
	// ModelOverride selects a different model for this call only. The
	// provider's configured model is never mutated.
	ModelOverride string
}

// httpSettings is the transport state shared by all backends.
type httpSettings struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// Option adjusts a provider's transport, mainly for tests.
type Option func(*httpSettings)

// WithBaseURL points the provider at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(s *httpSettings) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTimeout overrides the backend's default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *httpSettings) {
		s.timeout = d
	}
}

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *httpSettings) {
		s.client = client
	}
}

// apply runs the options and builds the client when none was supplied.
func (s *httpSettings) apply(opts []Option) {
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
}

// isTimeout reports whether a transport error was a timeout rather than a
// connection failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// readBodySnippet reads a bounded prefix of a response body for error
// detail, never failing.
func readBodySnippet(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 2048))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
