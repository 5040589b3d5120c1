package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tnhu/wpm/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNew(t *testing.T) {
	cfg := New()
	if cfg.Events.Default != "click" {
		t.Errorf("Events.Default = %q, want %q", cfg.Events.Default, "click")
	}
	if cfg.Events.Alternative != "touchstart" {
		t.Errorf("Events.Alternative = %q, want %q", cfg.Events.Alternative, "touchstart")
	}
	if cfg.Routes.DestroyGrace != 3*time.Second {
		t.Errorf("Routes.DestroyGrace = %v, want 3s", cfg.Routes.DestroyGrace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.Server.Listen != DefaultListen {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, DefaultListen)
	}
}

func TestLoadFile(t *testing.T) {
	dir := writeConfig(t, `
base_path = "/app/"
app_root = "main"
log_level = "debug"

[events]
default = "CLICK"
dedupe_window = "250ms"

[routes]
destroy_grace = "10ms"

[paths]
templates = "views"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BasePath != "/app" {
		t.Errorf("BasePath = %q, want %q", cfg.BasePath, "/app")
	}
	if cfg.AppRoot != "main" {
		t.Errorf("AppRoot = %q, want %q", cfg.AppRoot, "main")
	}
	if cfg.Events.Default != "click" {
		t.Errorf("Events.Default = %q, want lowercased %q", cfg.Events.Default, "click")
	}
	if cfg.Events.Alternative != "touchstart" {
		t.Errorf("Events.Alternative = %q, want default kept", cfg.Events.Alternative)
	}
	if cfg.Events.DedupeWindow != 250*time.Millisecond {
		t.Errorf("Events.DedupeWindow = %v, want 250ms", cfg.Events.DedupeWindow)
	}
	if cfg.Routes.DestroyGrace != 10*time.Millisecond {
		t.Errorf("Routes.DestroyGrace = %v, want 10ms", cfg.Routes.DestroyGrace)
	}
	if got, want := cfg.Resolve(cfg.Paths.Templates), filepath.Join(dir, "views"); got != want {
		t.Errorf("Resolve(templates) = %q, want %q", got, want)
	}
	if cfg.Level().String() != "DEBUG" {
		t.Errorf("Level() = %v, want DEBUG", cfg.Level())
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `base_path = "/app"`)
	t.Setenv("WPM_BASE_PATH", "/other")
	t.Setenv("WPM_ROUTES_DESTROY_GRACE", "1s")
	t.Setenv("WPM_SERVER_LISTEN", ":9000")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BasePath != "/other" {
		t.Errorf("BasePath = %q, want %q", cfg.BasePath, "/other")
	}
	if cfg.Routes.DestroyGrace != time.Second {
		t.Errorf("Routes.DestroyGrace = %v, want 1s", cfg.Routes.DestroyGrace)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("Server.Listen = %q, want %q", cfg.Server.Listen, ":9000")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"invalid toml", "base_path = ", "W020"},
		{"relative base path", `base_path = "app"`, "W021"},
		{"same events", "[events]\ndefault = \"click\"\nalternative = \"click\"", "W021"},
		{"bad log level", `log_level = "loud"`, "W021"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want code %s", err, tt.code)
			}
		})
	}
}
