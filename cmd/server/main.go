package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"voxllm/internal/app"
	"voxllm/internal/config"
	"voxllm/internal/logger"
)

// @title VoxLLM Case Intake API
// @version 1.0
// @description Staged school-exclusion interview with LLM analysis and PDF position statements
// @host localhost:8080
// @BasePath /v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; the mode itself comes from config.
		boot, _ := logger.New("dev")
		boot.Fatal("invalid configuration", "error", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	log.Info("starting",
		"llm_provider", cfg.AI.Provider,
		"llm_base_url", cfg.AI.BaseURL,
		"llm_model", cfg.AI.Model,
		"llm_key_configured", cfg.AI.IsEnabled(),
	)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		log.Info("endpoints",
			"cases", "POST /v1/cases, GET /v1/cases/{id}, GET /v1/cases/{id}/next",
			"answers", "POST /v1/cases/{id}/answers",
			"phases", "POST /v1/cases/{id}/phases/{analysis|summary|docgen}",
			"pdf", "POST /v1/cases/{id}/pdf, POST /v1/documents/pdf",
			"ws", "WS /v1/ws/cases/{id}?token=",
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", "error", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	a.Close(shutdownCtx)

	log.Info("server exited")
}
