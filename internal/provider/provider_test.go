package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestWithBaseURL_TrimsTrailingSlash(t *testing.T) {
	s := httpSettings{baseURL: "http://default"}
	s.apply([]Option{WithBaseURL("http://localhost:11434/")})

	if s.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q", s.baseURL)
	}
}

func TestWithTimeout_SetsClientTimeout(t *testing.T) {
	s := httpSettings{timeout: time.Minute}
	s.apply([]Option{WithTimeout(5 * time.Second)})

	if s.client == nil {
		t.Fatal("apply should build a client")
	}
	if s.client.Timeout != 5*time.Second {
		t.Errorf("client timeout = %v", s.client.Timeout)
	}
}

func TestWithHTTPClient_WinsOverTimeout(t *testing.T) {
	custom := &http.Client{Timeout: 42 * time.Second}
	s := httpSettings{timeout: time.Minute}
	s.apply([]Option{WithHTTPClient(custom)})

	if s.client != custom {
		t.Error("a provided client should be used as-is")
	}
}

func TestIsTimeout(t *testing.T) {
	if !isTimeout(context.DeadlineExceeded) {
		t.Error("context deadline should count as timeout")
	}
	if isTimeout(errors.New("connection refused")) {
		t.Error("plain errors are not timeouts")
	}
}
