package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tphummel/server_inventory/internal/assistant"
	"github.com/tphummel/server_inventory/internal/config"
	"github.com/tphummel/server_inventory/internal/db"
	"github.com/tphummel/server_inventory/internal/handlers"
	"github.com/tphummel/server_inventory/internal/inventory"
	"github.com/tphummel/server_inventory/internal/logging"
	"github.com/tphummel/server_inventory/internal/metrics"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// newAssistant returns the Gemini assistant when an API key is configured,
// and a disabled one otherwise.
func newAssistant(ctx context.Context, cfg *config.Config) (assistant.Assistant, error) {
	if cfg.GeminiAPIKey == "" {
		return assistant.Disabled{}, nil
	}
	g, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return g, nil
}

func newServer(cfg *config.Config, h *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           h.Routes(cfg.Token),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	store, err := inventory.Open(database)
	if err != nil {
		log.Fatalf("failed to load inventory: %v", err)
	}
	metrics.Register(store)

	asst, err := newAssistant(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	if _, ok := asst.(assistant.Disabled); ok {
		logger.Info("AI assistant disabled: GEMINI_API_KEY is not set")
	}

	h := &handlers.Handler{
		Store:          store,
		DB:             database,
		Assistant:      asst,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Version:        version,
		Commit:         commit,
	}
	srv := newServer(cfg, h)

	go func() {
		logger.Info("listening", "addr", srv.Addr, "version", version, "servers", len(store.List()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	if err := database.Close(); err != nil {
		slog.Error("database close error", "error", err)
	}
	slog.Info("server stopped")
}
