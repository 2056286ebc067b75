package service

import (
	"context"
	"fmt"
	"os"
	"time"
	"voxllm/internal/apperr"
	"voxllm/internal/cache"
	"voxllm/internal/config"
	"voxllm/internal/interview"
	"voxllm/internal/latex"
	"voxllm/internal/logger"
	"voxllm/internal/model"
	"voxllm/internal/repository"
)

const (
	statsPDF  = "pdf"
	logoAsset = "images/logo.png"
)

// PDFCompiler turns LaTeX source into PDF bytes.
type PDFCompiler interface {
	Compile(ctx context.Context, source string, assets map[string][]byte) ([]byte, error)
}

// DocumentService renders and compiles position statements
type DocumentService struct {
	compiler PDFCompiler
	sessions cache.SessionCache
	archive  repository.CaseRepo
	stats    cache.StatsCache
	template string
	logo     []byte
	opts     latex.Options
	log      *logger.Logger
	now      func() time.Time
}

// NewDocumentService creates a new document service. The template and logo
// named in cfg are read once here.
func NewDocumentService(compiler PDFCompiler, sessions cache.SessionCache, archive repository.CaseRepo, stats cache.StatsCache, cfg config.LaTeXConfig, log *logger.Logger) (*DocumentService, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &DocumentService{
		compiler: compiler,
		sessions: sessions,
		archive:  archive,
		stats:    stats,
		opts:     latex.Options{StartAt: cfg.StartAt, LeftMargin: cfg.LeftMargin},
		log:      log,
		now:      time.Now,
	}
	if cfg.TemplatePath != "" {
		data, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return nil, apperr.Config("template_unreadable", fmt.Sprintf("cannot read LaTeX template %s: %v", cfg.TemplatePath, err))
		}
		s.template = string(data)
	}
	if cfg.LogoPath != "" {
		data, err := os.ReadFile(cfg.LogoPath)
		if err != nil {
			return nil, apperr.Config("logo_unreadable", fmt.Sprintf("cannot read logo %s: %v", cfg.LogoPath, err))
		}
		s.logo = data
	}
	return s, nil
}

// RenderSessionPDF compiles the PDF for a case whose interview is complete
// and archives it. It can be called again after a failure.
func (s *DocumentService) RenderSessionPDF(ctx context.Context, sessionID string) ([]byte, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, apperr.NotFound("session_not_found", "case not found or expired")
	}
	next := interview.NextAction(session.Record, session.Flags)
	if next.Kind != model.ActionDone || next.Reason != model.DoneReady {
		return nil, apperr.Conflict("not_ready", "the interview is not complete yet")
	}

	details := model.DetailsFromRecord(session.Record)
	pdf, err := s.RenderPDF(ctx, details, session.Grounds, 0)
	if err != nil {
		return nil, err
	}

	doc := &model.CaseDocument{
		SessionID:   session.ID,
		Details:     details,
		Grounds:     session.Grounds,
		PDF:         pdf,
		SizeBytes:   len(pdf),
		GeneratedAt: s.now(),
	}
	if err := s.archive.SaveDocument(ctx, doc); err != nil {
		s.log.Warn("failed to archive document", "session_id", session.ID, "error", err)
	}
	return pdf, nil
}

// RenderPDF compiles a PDF from explicit details and grounds. startAt
// overrides the configured first reason number when positive.
func (s *DocumentService) RenderPDF(ctx context.Context, details model.DocumentDetails, grounds *model.GroundsDocument, startAt int) ([]byte, error) {
	opts := s.opts
	if startAt > 0 {
		opts.StartAt = startAt
	}
	source, err := latex.RenderDocument(s.template, details, grounds, opts)
	if err != nil {
		return nil, err
	}

	var assets map[string][]byte
	if len(s.logo) > 0 {
		assets = map[string][]byte{logoAsset: s.logo}
	}

	pdf, err := s.compiler.Compile(ctx, source, assets)
	if err != nil {
		s.count(ctx, cache.OutcomeFailed)
		return nil, err
	}
	s.count(ctx, cache.OutcomeCompleted)
	return pdf, nil
}

func (s *DocumentService) count(ctx context.Context, outcome string) {
	if err := s.stats.Increment(ctx, statsPDF, outcome); err != nil {
		s.log.Debug("stats increment failed", "error", err)
	}
}
