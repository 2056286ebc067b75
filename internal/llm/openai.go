package llm

import (
	"context"
	"net/http"
	"strings"
)

type openAIClient struct {
	t *transport
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (string, error) {
	body := chatCompletionRequest{
		Model:       c.t.model,
		Messages:    buildMessages(req),
		Temperature: c.t.temperatureFor(req),
	}
	var out chatCompletionResponse
	if err := c.t.do(ctx, http.MethodPost, "/v1/chat/completions", body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *openAIClient) Ping(ctx context.Context) (Status, error) {
	st := Status{Provider: c.t.provider, BaseURL: c.t.baseURL, Model: c.t.model}
	var out modelsResponse
	if err := c.t.do(ctx, http.MethodGet, "/v1/models", nil, &out); err != nil {
		return st, err
	}
	st.Reachable = true
	for _, m := range out.Data {
		st.Models = append(st.Models, m.ID)
	}
	return st, nil
}
