// Package llm talks to text-completion backends. Callers depend on Client
// only; Ollama and OpenAI-compatible endpoints are the two implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"voxllm/internal/config"
	"voxllm/internal/logger"
)

var (
	ErrEmptyResponse = errors.New("llm returned an empty response")
	ErrMissingAPIKey = errors.New("llm api key is not configured")
)

// Request is one completion call.
type Request struct {
	Prompt      string
	System      string
	Temperature *float64 // nil uses the client default
}

// Status describes the backend as seen by Ping.
type Status struct {
	Provider  string   `json:"provider"`
	BaseURL   string   `json:"baseUrl"`
	Model     string   `json:"model"`
	Reachable bool     `json:"reachable"`
	Models    []string `json:"models,omitempty"`
}

// Client is the narrow completion contract used by the analysis phases.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Ping(ctx context.Context) (Status, error)
}

// New builds the client for cfg.AI. A provider that requires a key and has
// none is rejected here.
func New(cfg config.AIConfig, log *logger.Logger) (Client, error) {
	if err := cfg.Validate(); err != nil {
		if cfg.RequiresKey() && !cfg.IsEnabled() {
			return nil, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
		}
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	base := newTransport(cfg, log)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return &openAIClient{t: base}, nil
	default:
		return &ollamaClient{t: base}, nil
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildMessages(req Request) []message {
	msgs := make([]message, 0, 2)
	if s := strings.TrimSpace(req.System); s != "" {
		msgs = append(msgs, message{Role: "system", Content: s})
	}
	return append(msgs, message{Role: "user", Content: req.Prompt})
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
