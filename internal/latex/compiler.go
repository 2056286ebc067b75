package latex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
	"voxllm/internal/apperr"
	"voxllm/internal/logger"

	"github.com/google/uuid"
)

const (
	DefaultCompileTimeout = 30 * time.Second
	jobName               = "position_statement"
)

// KnownPdflatexPaths are checked before falling back to $PATH.
var KnownPdflatexPaths = []string{
	"/usr/local/texlive/2025/bin/universal-darwin/pdflatex",
	"/usr/local/texlive/2024/bin/universal-darwin/pdflatex",
	"/usr/local/texlive/2023/bin/universal-darwin/pdflatex",
	"/Library/TeX/texbin/pdflatex",
	"/usr/bin/pdflatex",
	"/usr/local/bin/pdflatex",
}

// ErrToolchainMissing is wrapped when no pdflatex binary can be found.
var ErrToolchainMissing = errors.New("pdflatex not found")

// CompilerConfig configures a Compiler.
type CompilerConfig struct {
	PdflatexPath string        // explicit binary, checked first
	WorkDir      string        // parent of per-request temp dirs; os.TempDir() when empty
	Timeout      time.Duration // defaults to 30s
}

// Compiler runs pdflatex in an isolated directory per request.
type Compiler struct {
	cfg       CompilerConfig
	log       *logger.Logger
	lookPath  func(string) (string, error)
	candidate []string
}

func NewCompiler(cfg CompilerConfig, log *logger.Logger) *Compiler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCompileTimeout
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Compiler{cfg: cfg, log: log, lookPath: exec.LookPath, candidate: KnownPdflatexPaths}
}

// Locate returns the pdflatex binary that Compile would use.
func (c *Compiler) Locate() (string, error) {
	if c.cfg.PdflatexPath != "" {
		if isExecutable(c.cfg.PdflatexPath) {
			return c.cfg.PdflatexPath, nil
		}
		c.log.Warn("configured pdflatex not usable, searching", "path", c.cfg.PdflatexPath)
	}
	for _, p := range c.candidate {
		if isExecutable(p) {
			return p, nil
		}
	}
	if p, err := c.lookPath("pdflatex"); err == nil {
		return p, nil
	}
	return "", ErrToolchainMissing
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir() && fi.Mode()&0o111 != 0
}

// Compile writes source and assets into a fresh directory, runs pdflatex and
// returns the PDF. A non-zero exit status is logged but only a missing PDF
// counts as failure. Asset keys are paths relative to the document.
func (c *Compiler) Compile(ctx context.Context, source string, assets map[string][]byte) ([]byte, error) {
	bin, err := c.Locate()
	if err != nil {
		return nil, &apperr.Error{
			Kind:       apperr.KindCompilation,
			Code:       "toolchain_missing",
			Message:    "pdflatex not found",
			Suggestion: "Install a TeX distribution or set VOXLLM_PDFLATEX_PATH.",
			Err:        err,
		}
	}

	token := uuid.NewString()
	dir := filepath.Join(c.cfg.WorkDir, "voxllm-"+token)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, apperr.Compilation("workdir_failed", "could not create compile directory", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			c.log.Warn("failed to remove compile dir", "dir", dir, "error", err)
		}
	}()

	for name, data := range assets {
		if !filepath.IsLocal(name) {
			return nil, apperr.Validation("invalid_asset", fmt.Sprintf("asset path %q escapes the document directory", name))
		}
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return nil, apperr.Compilation("workdir_failed", "could not write asset", err)
		}
		if err := os.WriteFile(p, data, 0o600); err != nil {
			return nil, apperr.Compilation("workdir_failed", "could not write asset", err)
		}
	}
	texFile := jobName + ".tex"
	if err := os.WriteFile(filepath.Join(dir, texFile), []byte(source), 0o600); err != nil {
		return nil, apperr.Compilation("workdir_failed", "could not write LaTeX source", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, "-interaction=nonstopmode", texFile)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, apperr.Compilation("timeout", fmt.Sprintf("pdflatex did not finish within %s", c.cfg.Timeout), runCtx.Err())
	}
	if runErr != nil {
		c.log.Warn("pdflatex exited with error, checking for output",
			"token", token, "error", runErr, "elapsed", time.Since(start))
	}

	pdf, err := os.ReadFile(filepath.Join(dir, jobName+".pdf"))
	if err != nil {
		return nil, apperr.Compilation("no_output", "PDF compilation failed: no output file generated", fmt.Errorf("%w; log tail: %s", err, tail(out.String(), 2000)))
	}
	c.log.Info("pdf compiled", "token", token, "bytes", len(pdf), "elapsed", time.Since(start))
	return pdf, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
