package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tphummel/server_inventory/internal/assistant"
	"github.com/tphummel/server_inventory/internal/config"
	"github.com/tphummel/server_inventory/internal/handlers"
	"github.com/tphummel/server_inventory/internal/inventory"
)

func TestNewAssistant_DisabledWithoutKey(t *testing.T) {
	a, err := newAssistant(context.Background(), &config.Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.(assistant.Disabled); !ok {
		t.Errorf("got %T, want assistant.Disabled", a)
	}
}

func TestNewAssistant_GeminiWithKey(t *testing.T) {
	cfg := &config.Config{GeminiAPIKey: "test-key", GeminiModel: config.DefaultGeminiModel}
	a, err := newAssistant(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := a.(*assistant.Gemini); !ok {
		t.Errorf("got %T, want *assistant.Gemini", a)
	}
}

func TestNewServer(t *testing.T) {
	store, err := inventory.Open(nil)
	if err != nil {
		t.Fatalf("inventory.Open: %v", err)
	}
	cfg := &config.Config{Token: "my-token", Port: "9090"}
	srv := newServer(cfg, &handlers.Handler{Store: store})

	if srv.Addr != ":9090" {
		t.Errorf("Addr: got %q, want :9090", srv.Addr)
	}
	if srv.ReadHeaderTimeout == 0 || srv.WriteTimeout == 0 {
		t.Error("server timeouts should be set")
	}

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/servers", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request: got %d, want 401", w.Code)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/servers", nil)
	r.Header.Set("Authorization", "Bearer my-token")
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated request: got %d, want 200", w.Code)
	}
}
