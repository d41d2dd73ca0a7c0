package provider

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// recordedRequest captures one backend call for later assertions.
type recordedRequest struct {
	Method  string
	Path    string
	Body    map[string]interface{}
	Headers http.Header
}

// mockBackend wraps httptest.Server and records every request before
// handing it to the handler under test. The body is re-wound so the
// handler can read it again.
type mockBackend struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newMockBackend(handler http.HandlerFunc) *mockBackend {
	m := &mockBackend{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))

		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)

		m.mu.Lock()
		m.requests = append(m.requests, recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Body:    body,
			Headers: r.Header.Clone(),
		})
		m.mu.Unlock()

		handler(w, r)
	}))
	return m
}

func (m *mockBackend) lastRequest() recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return recordedRequest{}
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockBackend) requestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// bodyMessages pulls the "messages" array out of a recorded body.
func bodyMessages(body map[string]interface{}) []map[string]interface{} {
	raw, ok := body["messages"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		if msg, ok := item.(map[string]interface{}); ok {
			out = append(out, msg)
		}
	}
	return out
}

func writeJSONBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
