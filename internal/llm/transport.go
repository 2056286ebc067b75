package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"voxllm/internal/config"
	"voxllm/internal/logger"
)

const maxBackoff = 10 * time.Second

// httpError carries a non-2xx response.
type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, truncate(e.Body, 500))
}

func isRetryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var he *httpError
	if errors.As(err, &he) {
		return isRetryableStatus(he.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// Connection resets and refused connections surface as *url.Error wrapping
	// *net.OpError; both are worth another attempt.
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// transport is the shared JSON-over-HTTP layer with retry and backoff.
type transport struct {
	provider    string
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	backoff     time.Duration
	authHeader  func(key string) string
	httpClient  *http.Client
	log         *logger.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

func newTransport(cfg config.AIConfig, log *logger.Logger) *transport {
	t := &transport{
		provider:    cfg.Provider,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		backoff:     time.Second,
		httpClient:  newHTTPClient(cfg.Timeout()),
		log:         log,
		sleep:       sleepCtx,
	}
	if cfg.Provider == config.ProviderOpenAI {
		t.authHeader = func(key string) string { return "Bearer " + key }
	} else {
		// Ollama Cloud takes the raw key.
		t.authHeader = func(key string) string { return key }
	}
	if t.maxRetries < 0 {
		t.maxRetries = 0
	}
	return t
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *transport) temperatureFor(req Request) float64 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return t.temperature
}

func (t *transport) doOnce(ctx context.Context, method, path string, body, out interface{}) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", t.authHeader(t.apiKey))
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return resp, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp, fmt.Errorf("decode %s response: %w; raw=%s", t.provider, err, truncate(string(raw), 200))
	}
	return resp, nil
}

// do retries transport failures, 408, 429 and 5xx with exponential backoff
// (honouring Retry-After), and gives up on any other error at once.
func (t *transport) do(ctx context.Context, method, path string, body, out interface{}) error {
	backoff := t.backoff
	start := time.Now()
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, err := t.doOnce(ctx, method, path, body, out)
		if err == nil {
			t.log.Debug("llm request completed", "provider", t.provider, "path", path, "attempt", attempt+1, "elapsed", time.Since(start))
			return nil
		}
		if !isRetryable(err) || attempt >= t.maxRetries {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		wait := jitter(retryAfter(resp, backoff, maxBackoff))
		t.log.Warn("llm request retrying",
			"provider", t.provider,
			"path", path,
			"attempt", attempt+1,
			"max_retries", t.maxRetries,
			"sleep", wait.String(),
			"error", err.Error(),
		)
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
		backoff *= 2
	}
}

func retryAfter(resp *http.Response, fallback, max time.Duration) time.Duration {
	d := fallback
	if resp != nil {
		if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				d = time.Duration(secs) * time.Second
			}
		}
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := float64(base) * 0.2
	return time.Duration(float64(base) - delta + rand.Float64()*2*delta)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
