package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DanielPonttes/Chatbot-generico/pkg/types"
)

// TestClient provides HTTP client utilities for testing.
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewTestClient creates a new test HTTP client.
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// RequestOption configures HTTP requests.
type RequestOption func(*http.Request)

// WithHeader adds a header to the request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// Response wraps an HTTP response with helpers.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// String returns the response body as a string.
func (r *Response) String() string {
	return string(r.Body)
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// APIError is the flat error envelope every endpoint uses.
type APIError struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

// Error decodes the response body as an error envelope.
func (r *Response) Error() (*APIError, error) {
	var apiErr APIError
	if err := json.Unmarshal(r.Body, &apiErr); err != nil {
		return nil, fmt.Errorf("response is not an error envelope: %s", r.String())
	}
	return &apiErr, nil
}

// Get performs an HTTP GET request.
func (c *TestClient) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs an HTTP POST request with a JSON body.
func (c *TestClient) Post(ctx context.Context, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body, opts...)
}

// Delete performs an HTTP DELETE request.
func (c *TestClient) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, opts...)
}

func (c *TestClient) do(ctx context.Context, method, path string, body interface{}, opts ...RequestOption) (*Response, error) {
	fullURL := c.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// ---- Chat Helpers ----

// Chat sends a reactive chat turn and decodes the reply.
func (c *TestClient) Chat(ctx context.Context, sessionID, message string) (*types.ChatResponse, error) {
	resp, err := c.Post(ctx, "/chat", types.ChatRequest{
		SessionID: sessionID,
		Message:   message,
	})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("chat failed: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.ChatResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Proactive requests a persona-initiated message.
func (c *TestClient) Proactive(ctx context.Context, req types.ProactiveRequest) (*types.ProactiveResponse, error) {
	resp, err := c.Post(ctx, "/chat/proactive", req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("proactive chat failed: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.ProactiveResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History retrieves the stored conversation of a session.
func (c *TestClient) History(ctx context.Context, sessionID string) (*types.HistoryResponse, error) {
	resp, err := c.Get(ctx, "/chat/"+sessionID+"/history")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to get history: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.HistoryResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearSession deletes a session's conversation memory.
func (c *TestClient) ClearSession(ctx context.Context, sessionID string) error {
	resp, err := c.Delete(ctx, "/chat/"+sessionID)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("failed to clear session: %d - %s", resp.StatusCode, resp.String())
	}
	return nil
}

// ---- Catalog Helpers ----

// Personas lists the persona catalog.
func (c *TestClient) Personas(ctx context.Context) ([]types.PersonaInfo, error) {
	resp, err := c.Get(ctx, "/personas")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to list personas: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.PersonaListResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return out.Personas, nil
}

// TargetProfiles lists the audience profiles.
func (c *TestClient) TargetProfiles(ctx context.Context) ([]types.TargetProfileInfo, error) {
	resp, err := c.Get(ctx, "/target-profiles")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("failed to list target profiles: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.TargetProfileListResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// ---- Health and Retrieval Helpers ----

// Health retrieves the service health report.
func (c *TestClient) Health(ctx context.Context) (*types.HealthResponse, error) {
	resp, err := c.Get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("health check failed: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.HealthResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RAGSearch queries the knowledge base.
func (c *TestClient) RAGSearch(ctx context.Context, query string, k int) (*types.RAGSearchResponse, error) {
	resp, err := c.Post(ctx, "/rag/search", types.RAGSearchRequest{Query: query, K: k})
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("rag search failed: %d - %s", resp.StatusCode, resp.String())
	}

	var out types.RAGSearchResponse
	if err := resp.JSON(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
