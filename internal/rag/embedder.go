package rag

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

	"github.com/DanielPonttes/Chatbot-generico/internal/logging"
)

const (
	embedBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	embedTimeout = 30 * time.Second
)

// Embedder turns text into a vector. The index uses it for queries and
// the ingestor for documents.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds many texts in one API call, one vector per
	// text, same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder calls the Gemini embedding API over REST.
type GeminiEmbedder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	log     zerolog.Logger
}

// EmbedderOption customizes a GeminiEmbedder.
type EmbedderOption func(*GeminiEmbedder)

func WithEmbedderBaseURL(url string) EmbedderOption {
	return func(e *GeminiEmbedder) {
		e.baseURL = strings.TrimRight(url, "/")
	}
}

func WithEmbedderHTTPClient(client *http.Client) EmbedderOption {
	return func(e *GeminiEmbedder) {
		e.client = client
	}
}

func NewGeminiEmbedder(apiKey, model string, opts ...EmbedderOption) *GeminiEmbedder {
	e := &GeminiEmbedder{
		baseURL: embedBaseURL,
		apiKey:  apiKey,
		model:   model,
		log:     logging.Component("rag.embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = &http.Client{Timeout: embedTimeout}
	}
	return e
}

type embedPart struct {
	Text string `json:"text"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedContentRequest struct {
	Model   string       `json:"model"`
	Content embedContent `json:"content"`
}

type embedValues struct {
	Values []float32 `json:"values"`
}

type embedContentResponse struct {
	Embedding embedValues `json:"embedding"`
}

type batchEmbedRequest struct {
	Requests []embedContentRequest `json:"requests"`
}

type batchEmbedResponse struct {
	Embeddings []embedValues `json:"embeddings"`
}

func (e *GeminiEmbedder) embedRequest(text string) embedContentRequest {
	return embedContentRequest{
		Model:   "models/" + e.model,
		Content: embedContent{Parts: []embedPart{{Text: text}}},
	}
}

// Embed embeds a single text, typically a search query.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	url := fmt.Sprintf("%s/models/%s:embedContent", e.baseURL, e.model)

	var out embedContentResponse
	if err := e.post(ctx, url, e.embedRequest(text), &out); err != nil {
		return nil, err
	}
	if len(out.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding vazio para o texto (%d chars)", len(text))
	}
	return out.Embedding.Values, nil
}

// EmbedBatch embeds up to a provider-limited number of texts in one
// call. Ingestion batches are sized well under that limit.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := batchEmbedRequest{Requests: make([]embedContentRequest, len(texts))}
	for i, text := range texts {
		req.Requests[i] = e.embedRequest(text)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", e.baseURL, e.model)
	var out batchEmbedResponse
	if err := e.post(ctx, url, req, &out); err != nil {
		return nil, err
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("API retornou %d embeddings para %d textos", len(out.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(out.Embeddings))
	for i, emb := range out.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func (e *GeminiEmbedder) post(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("falha ao chamar a API de embeddings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("API de embeddings retornou HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("resposta inválida da API de embeddings: %w", err)
	}
	return nil
}
