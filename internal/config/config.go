// Package config loads service settings from defaults, an optional YAML file
// named by VOXLLM_CONFIG, and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"voxllm/internal/apperr"

	"gopkg.in/yaml.v3"
)

// LaTeXConfig controls PDF rendering.
type LaTeXConfig struct {
	PdflatexPath   string `yaml:"pdflatexPath"`
	WorkDir        string `yaml:"workDir"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	TemplatePath   string `yaml:"templatePath"` // empty means the built-in template
	LogoPath       string `yaml:"logoPath"`     // copied to images/logo.png when set
	StartAt        int    `yaml:"startAt"`
	LeftMargin     string `yaml:"leftMargin"`
}

type Config struct {
	HTTPPort      string      `yaml:"httpPort"`
	LogMode       string      `yaml:"logMode"`
	RedisAddr     string      `yaml:"redisAddr"` // empty keeps sessions in memory
	MongoURI      string      `yaml:"mongoUri"`  // empty disables the document archive
	MongoDatabase string      `yaml:"mongoDatabase"`
	JWTSecret     string      `yaml:"-"`
	SessionTTL    Duration    `yaml:"sessionTtl"`
	DocumentsDir  string      `yaml:"documentsDir"`
	PromptsFile   string      `yaml:"promptsFile"` // empty means the built-in catalogue
	AllowOrigins  []string    `yaml:"allowOrigins"`
	LaTeX         LaTeXConfig `yaml:"latex"`
	AI            AIConfig    `yaml:"ai"`
}

// Duration reads "24h" style values from YAML.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(value.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		HTTPPort:      "8080",
		LogMode:       "dev",
		MongoDatabase: "voxllm",
		SessionTTL:    Duration{24 * time.Hour},
		DocumentsDir:  "documents",
		AllowOrigins:  []string{"*"},
		LaTeX: LaTeXConfig{
			TimeoutSeconds: 30,
			LeftMargin:     "6ex",
			StartAt:        1,
		},
		AI: DefaultAIConfig(),
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv("VOXLLM_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPPort = getEnvOrDefault("PORT", c.HTTPPort)
	c.LogMode = getEnvOrDefault("VOXLLM_LOG_MODE", c.LogMode)
	c.RedisAddr = strings.TrimPrefix(getEnvOrDefault("REDIS_ADDR", c.RedisAddr), "redis://")
	c.MongoURI = getEnvOrDefault("MONGO_URI", c.MongoURI)
	c.MongoDatabase = getEnvOrDefault("MONGO_DATABASE", c.MongoDatabase)
	c.JWTSecret = getEnvOrDefault("JWT_SECRET", c.JWTSecret)
	c.DocumentsDir = getEnvOrDefault("VOXLLM_DOCUMENTS_DIR", c.DocumentsDir)
	c.PromptsFile = getEnvOrDefault("VOXLLM_PROMPTS_FILE", c.PromptsFile)
	if v := os.Getenv("VOXLLM_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.SessionTTL = Duration{d}
		}
	}
	if v := os.Getenv("VOXLLM_ALLOW_ORIGINS"); v != "" {
		c.AllowOrigins = splitList(v)
	}

	c.LaTeX.PdflatexPath = getEnvOrDefault("VOXLLM_PDFLATEX_PATH", c.LaTeX.PdflatexPath)
	c.LaTeX.WorkDir = getEnvOrDefault("VOXLLM_LATEX_WORKDIR", c.LaTeX.WorkDir)
	c.LaTeX.TimeoutSeconds = getEnvInt("VOXLLM_LATEX_TIMEOUT_SECONDS", c.LaTeX.TimeoutSeconds)
	c.LaTeX.TemplatePath = getEnvOrDefault("VOXLLM_LATEX_TEMPLATE", c.LaTeX.TemplatePath)
	c.LaTeX.LogoPath = getEnvOrDefault("VOXLLM_LATEX_LOGO", c.LaTeX.LogoPath)

	c.AI.applyEnv()
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	m := strings.ToLower(c.LogMode)
	return m == "prod" || m == "production"
}

// Validate returns an apperr config error describing the first problem.
func (c *Config) Validate() error {
	if err := c.AI.Validate(); err != nil {
		return apperr.Config("invalid_llm_config", err.Error())
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return apperr.Config("missing_jwt_secret", "JWT_SECRET must be set in production")
	}
	if c.SessionTTL.Duration <= 0 {
		return apperr.Config("invalid_session_ttl", "session TTL must be positive")
	}
	if c.LaTeX.TimeoutSeconds <= 0 {
		return apperr.Config("invalid_latex_timeout", "LaTeX timeout must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
