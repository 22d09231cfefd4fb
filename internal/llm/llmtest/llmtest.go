// Package llmtest provides a fake OpenAI-compatible chat completion server.
package llmtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Server is a fake completion endpoint that answers every chat request with
// a fixed reply and records the decoded requests.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []map[string]any
}

// NewServer starts a server replying with content. It is closed on test cleanup.
func NewServer(t *testing.T, content string) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			s.mu.Lock()
			s.requests = append(s.requests, body)
			s.mu.Unlock()
		}
		WriteCompletion(w, content)
	}))
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the value to configure as the gateway base URL.
func (s *Server) BaseURL() string {
	return s.URL + "/v1"
}

// Requests returns the request bodies received so far.
func (s *Server) Requests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, len(s.requests))
	copy(out, s.requests)
	return out
}

// WriteCompletion writes a chat.completion body with one choice.
func WriteCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "llama-3.1-8b-instant",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     40,
			"completion_tokens": 25,
			"total_tokens":      65,
		},
	})
}
