package main

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tnhu/wpm/internal/config"
)

func TestShellMarkup(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<div id="root"></div>`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		shell   string
		appRoot string
		want    string
	}{
		{"no root", "", "", ""},
		{"app root", "", "app", `<main id="app"></main>`},
		{"file", "index.html", "app", `<div id="root"></div>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &globals{dir: dir, shell: tt.shell}
			cfg := config.New()
			cfg.AppRoot = tt.appRoot
			got, err := g.shellMarkup(cfg)
			if err != nil {
				t.Fatalf("shellMarkup() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("shellMarkup() = %q, want %q", got, tt.want)
			}
		})
	}

	g := &globals{dir: dir, shell: "missing.html"}
	if _, err := g.shellMarkup(config.New()); err == nil {
		t.Error("shellMarkup(missing file) error = nil")
	}
}

func TestShellHandler(t *testing.T) {
	h, err := shellHandler(`<main id="app"></main>`)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/inbox/42", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<!DOCTYPE html>") || !strings.Contains(body, `<main id="app"`) {
		t.Errorf("body = %s", body)
	}
}

func TestGlobalsConfigLogLevel(t *testing.T) {
	g := &globals{dir: t.TempDir(), logLevel: "verbose"}
	if _, err := g.config(); err == nil {
		t.Error("config() with invalid log level error = nil")
	}
	g.logLevel = "debug"
	cfg, err := g.config()
	if err != nil {
		t.Fatalf("config() error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}
