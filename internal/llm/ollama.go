package llm

import (
	"context"
	"net/http"
	"strings"
)

type ollamaClient struct {
	t *transport
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

type ollamaChatResponse struct {
	Message message `json:"message"`
	Done    bool    `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *ollamaClient) Complete(ctx context.Context, req Request) (string, error) {
	body := ollamaChatRequest{
		Model:    c.t.model,
		Messages: buildMessages(req),
		Stream:   false,
		Options:  ollamaOptions{Temperature: c.t.temperatureFor(req)},
	}
	var out ollamaChatResponse
	if err := c.t.do(ctx, http.MethodPost, "/api/chat", body, &out); err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *ollamaClient) Ping(ctx context.Context) (Status, error) {
	st := Status{Provider: c.t.provider, BaseURL: c.t.baseURL, Model: c.t.model}
	var out ollamaTagsResponse
	if err := c.t.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return st, err
	}
	st.Reachable = true
	for _, m := range out.Models {
		st.Models = append(st.Models, m.Name)
	}
	return st, nil
}
