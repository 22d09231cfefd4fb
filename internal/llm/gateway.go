// Package llm is the single boundary to the OpenAI-compatible completion
// endpoint used for question evaluation and generation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Request is one system+user exchange.
type Request struct {
	System      string
	User        string
	Model       ModelID
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// Completer is what the evaluator and generator need from the gateway.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config configures a Gateway.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials CredentialSource
}

// Gateway performs blocking chat completions. It holds no state beyond a
// per-key client cache, so it is safe for concurrent use.
type Gateway struct {
	baseURL string
	timeout time.Duration
	creds   CredentialSource

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// New creates a gateway. A nil credential source means no key is ever found.
func New(cfg Config) *Gateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	creds := cfg.Credentials
	if creds == nil {
		creds = StaticKey("")
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: cfg.Timeout,
		creds:   creds,
		clients: make(map[string]*openai.Client),
	}
}

func (g *Gateway) client() (*openai.Client, error) {
	key, err := g.creds.APIKey()
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[key]; ok {
		return c, nil
	}
	config := openai.DefaultConfig(key)
	config.BaseURL = g.baseURL
	c := openai.NewClientWithConfig(config)
	g.clients[key] = c
	return c, nil
}

// Available reports whether a credential can currently be resolved.
func (g *Gateway) Available() bool {
	_, err := g.creds.APIKey()
	return err == nil
}

// Complete sends the exchange and returns the first choice's text. There is
// no retry.
func (g *Gateway) Complete(ctx context.Context, req Request) (string, error) {
	c, err := g.client()
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: string(req.Model),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	})
	if err != nil {
		return "", &UpstreamError{Model: string(req.Model), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Model: string(req.Model), Err: errors.New("no choices returned")}
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("LLM response",
		"model", req.Model,
		"elapsed", time.Since(start),
		"tokens", resp.Usage.TotalTokens,
		"raw", raw,
	)
	return raw, nil
}

// Ping checks that the endpoint accepts the configured credential.
func (g *Gateway) Ping(ctx context.Context) error {
	c, err := g.client()
	if err != nil {
		return err
	}
	if _, err := c.ListModels(ctx); err != nil {
		return &UpstreamError{Model: "-", Err: fmt.Errorf("list models: %w", err)}
	}
	return nil
}
