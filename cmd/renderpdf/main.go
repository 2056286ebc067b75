// Command renderpdf compiles a position statement from a JSON file holding
// {"case": {...}, "grounds": {...}} without running the service. With -tex
// it only prints the LaTeX source.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"
	"voxllm/internal/latex"
	"voxllm/internal/logger"
	"voxllm/internal/model"
)

func main() {
	in := flag.String("in", "", "input JSON file (default stdin)")
	out := flag.String("out", "position_statement.pdf", "output PDF path")
	texOnly := flag.Bool("tex", false, "print the LaTeX source instead of compiling")
	template := flag.String("template", "", "LaTeX template (default built-in)")
	startAt := flag.Int("start", 1, "first reason number")
	pdflatex := flag.String("pdflatex", "", "pdflatex binary")
	timeout := flag.Duration("timeout", latex.DefaultCompileTimeout, "compile timeout")
	flag.Parse()

	log, err := logger.New("dev")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, *in, *out, *template, *pdflatex, *startAt, *timeout, *texOnly); err != nil {
		log.Fatal("render failed", "error", err)
	}
}

func run(log *logger.Logger, in, out, templatePath, pdflatex string, startAt int, timeout time.Duration, texOnly bool) error {
	data, err := readInput(in)
	if err != nil {
		return err
	}
	var req model.RenderPDFRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decode %s: %w", in, err)
	}
	if req.StartAt > 0 {
		startAt = req.StartAt
	}

	tpl := ""
	if templatePath != "" {
		b, err := os.ReadFile(templatePath)
		if err != nil {
			return err
		}
		tpl = string(b)
	}

	source, err := latex.RenderDocument(tpl, req.Case, req.Grounds, latex.Options{StartAt: startAt})
	if err != nil {
		return err
	}
	if texOnly {
		_, err := os.Stdout.WriteString(source)
		return err
	}

	compiler := latex.NewCompiler(latex.CompilerConfig{PdflatexPath: pdflatex, Timeout: timeout}, log)
	pdf, err := compiler.Compile(context.Background(), source, nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, pdf, 0o644); err != nil {
		return err
	}
	log.Info("pdf written", "path", out, "bytes", len(pdf), "grounds", len(req.Grounds.Grounds))
	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
