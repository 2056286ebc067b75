package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// LLM providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultOpenAIURL = "https://api.openai.com"
	defaultModel     = "gpt-oss:120b"
)

// AIConfig holds all LLM-related configuration
type AIConfig struct {
	Provider    string  `json:"provider" yaml:"provider"`
	APIKey      string  `json:"-" yaml:"-"` // Never serialize; env only
	BaseURL     string  `json:"baseUrl" yaml:"baseUrl"`
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	TimeoutMS   int     `json:"timeoutMs" yaml:"timeoutMs"`
	MaxRetries  int     `json:"maxRetries" yaml:"maxRetries"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() AIConfig {
	return AIConfig{
		Provider:    ProviderOllama,
		Model:       defaultModel,
		Temperature: 0.2,
		TimeoutMS:   120000, // position statements are long
		MaxRetries:  3,
	}
}

func (c *AIConfig) applyEnv() {
	c.Provider = strings.ToLower(getEnvOrDefault("VOXLLM_LLM_PROVIDER", c.Provider))
	c.BaseURL = getEnvOrDefault("VOXLLM_LLM_BASE_URL", c.BaseURL)
	c.Model = getEnvOrDefault("VOXLLM_LLM_MODEL", c.Model)
	c.Temperature = getEnvFloat("VOXLLM_LLM_TEMPERATURE", c.Temperature)
	c.TimeoutMS = getEnvInt("VOXLLM_LLM_TIMEOUT_MS", c.TimeoutMS)
	c.MaxRetries = getEnvInt("VOXLLM_LLM_MAX_RETRIES", c.MaxRetries)

	key := os.Getenv("VOXLLM_LLM_API_KEY")
	if key == "" {
		switch c.Provider {
		case ProviderOllama:
			key = os.Getenv("OLLAMA_API_KEY")
		case ProviderOpenAI:
			key = os.Getenv("OPENAI_API_KEY")
		}
	}
	if key != "" {
		c.APIKey = key
	}
	if c.BaseURL == "" {
		c.BaseURL = c.defaultBaseURL()
	}
}

func (c *AIConfig) defaultBaseURL() string {
	if c.Provider == ProviderOpenAI {
		return defaultOpenAIURL
	}
	return defaultOllamaURL
}

// IsEnabled returns true if an API key is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// RequiresKey reports whether the provider refuses unauthenticated calls.
// A local Ollama does not; Ollama Cloud and OpenAI do.
func (c *AIConfig) RequiresKey() bool {
	if c.Provider == ProviderOpenAI {
		return true
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "ollama.com" || strings.HasSuffix(host, ".ollama.com")
}

// Timeout returns the per-request timeout.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Validate rejects unusable settings. There is no fallback key: a provider
// that needs one and has none is a configuration error.
func (c *AIConfig) Validate() error {
	switch c.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown LLM provider %q (want %s or %s)", c.Provider, ProviderOllama, ProviderOpenAI)
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid LLM base URL %q: %w", c.BaseURL, err)
	}
	if c.Model == "" {
		return fmt.Errorf("LLM model is not set")
	}
	if c.RequiresKey() && !c.IsEnabled() {
		return fmt.Errorf("%s at %s requires an API key: set VOXLLM_LLM_API_KEY", c.Provider, c.BaseURL)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("LLM temperature %.2f out of range", c.Temperature)
	}
	if c.TimeoutMS <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}
	return nil
}
