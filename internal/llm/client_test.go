package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
	"voxllm/internal/config"
	"voxllm/internal/logger"
)

func newTestClient(t *testing.T, provider, url, key string) Client {
	t.Helper()
	cfg := config.DefaultAIConfig()
	cfg.Provider = provider
	cfg.BaseURL = url
	cfg.APIKey = key
	cfg.MaxRetries = 2
	c, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	// No real sleeping between retries.
	switch v := c.(type) {
	case *ollamaClient:
		v.t.sleep = func(context.Context, time.Duration) error { return nil }
	case *openAIClient:
		v.t.sleep = func(context.Context, time.Duration) error { return nil }
	}
	return c
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("local ollama should not get an auth header, got %q", got)
		}
		var body ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
			return
		}
		if body.Stream || body.Model != "gpt-oss:120b" || body.Options.Temperature != 0.2 {
			t.Errorf("unexpected body %+v", body)
		}
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[1].Content != "extract" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"role": "assistant", "content": "  Fighting in class.  "},
			"done":    true,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOllama, srv.URL, "")
	got, err := c.Complete(context.Background(), Request{Prompt: "extract", System: "be precise"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Fighting in class." {
		t.Fatalf("got %q", got)
	}
}

func TestOpenAICompleteAndTemperatureOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		var body chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Temperature != 0 {
			t.Errorf("temperature override not applied: %v", body.Temperature)
		}
		if len(body.Messages) != 1 {
			t.Errorf("no system message expected, got %+v", body.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"grounds\":[]}"}}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOpenAI, srv.URL, "sk-test")
	zero := 0.0
	got, err := c.Complete(context.Background(), Request{Prompt: "reformat", Temperature: &zero})
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"grounds":[]}` {
		t.Fatalf("got %q", got)
	}
}

func TestRetriesOnServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOllama, srv.URL, "")
	got, err := c.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOllama, srv.URL, "")
	_, err := c.Complete(context.Background(), Request{Prompt: "x"})
	var he *httpError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 httpError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOpenAI, srv.URL, "sk-wrong")
	if _, err := c.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("401 was retried %d times", calls)
	}
}

func TestEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOpenAI, srv.URL, "sk")
	if _, err := c.Complete(context.Background(), Request{Prompt: "x"}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "cloud-key" {
			t.Errorf("ollama key should be sent as-is, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"models":[{"name":"gpt-oss:120b"},{"name":"llama3"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, config.ProviderOllama, srv.URL, "cloud-key")
	st, err := c.Ping(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Reachable || len(st.Models) != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestNewRejectsMissingKey(t *testing.T) {
	cfg := config.DefaultAIConfig()
	cfg.Provider = config.ProviderOpenAI
	cfg.BaseURL = "https://api.openai.com"
	if _, err := New(cfg, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	cfg = config.DefaultAIConfig()
	cfg.BaseURL = "https://ollama.com"
	if _, err := New(cfg, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("ollama cloud without key: %v", err)
	}
}
