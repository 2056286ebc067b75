package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"voxllm/internal/apperr"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"VOXLLM_CONFIG", "PORT", "VOXLLM_LOG_MODE", "REDIS_ADDR", "MONGO_URI", "JWT_SECRET",
		"VOXLLM_LLM_PROVIDER", "VOXLLM_LLM_BASE_URL", "VOXLLM_LLM_MODEL", "VOXLLM_LLM_API_KEY",
		"OLLAMA_API_KEY", "OPENAI_API_KEY", "VOXLLM_LLM_TEMPERATURE", "VOXLLM_SESSION_TTL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AI.Provider != ProviderOllama || cfg.AI.BaseURL != defaultOllamaURL || cfg.AI.Model != "gpt-oss:120b" {
		t.Fatalf("unexpected AI defaults %+v", cfg.AI)
	}
	if cfg.AI.Temperature != 0.2 {
		t.Fatalf("temperature = %v", cfg.AI.Temperature)
	}
	if cfg.SessionTTL.Duration != 24*time.Hour || cfg.LaTeX.TimeoutSeconds != 30 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestMissingKeyIsConfigError(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"openai", map[string]string{"VOXLLM_LLM_PROVIDER": "openai"}},
		{"ollama cloud", map[string]string{"VOXLLM_LLM_BASE_URL": "https://ollama.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if !apperr.Is(err, apperr.KindConfig) {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}

func TestProviderKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOXLLM_LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AI.APIKey != "sk-test" || cfg.AI.BaseURL != defaultOpenAIURL {
		t.Fatalf("unexpected %+v", cfg.AI)
	}
}

func TestYAMLOverlayThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "voxllm.yaml")
	yml := `
httpPort: "9000"
sessionTtl: 2h
latex:
  pdflatexPath: /opt/tex/pdflatex
  timeoutSeconds: 45
ai:
  model: llama3
  temperature: 0.4
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VOXLLM_CONFIG", path)
	t.Setenv("VOXLLM_LLM_MODEL", "qwen")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPPort != "9000" || cfg.SessionTTL.Duration != 2*time.Hour {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.LaTeX.PdflatexPath != "/opt/tex/pdflatex" || cfg.LaTeX.TimeoutSeconds != 45 || cfg.LaTeX.LeftMargin != "6ex" {
		t.Fatalf("latex = %+v", cfg.LaTeX)
	}
	if cfg.AI.Model != "qwen" || cfg.AI.Temperature != 0.4 {
		t.Fatalf("env should win over yaml: %+v", cfg.AI)
	}
}

func TestProductionRequiresJWTSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("VOXLLM_LOG_MODE", "prod")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT secret error, got %v", err)
	}
}
