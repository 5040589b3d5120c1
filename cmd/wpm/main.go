package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tnhu/wpm"
	"github.com/tnhu/wpm/internal/config"
)

// Version information set at build time.
var (
	version = wpm.Version
	commit  = "none"
	date    = "unknown"
)

// globals are the persistent flags shared by every command.
type globals struct {
	dir      string
	logLevel string
	shell    string
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "wpm",
		Short: "Navigation runtime for single-page applications",
		Long: `wpm resolves URIs to nested route chains and drives route
instances through their lifecycle.

The project is read from wpm.toml in --dir: Handlebars templates,
go-i18n message files and a TOML or YAML route manifest. serve
runs one navigation runtime per browser over WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&g.dir, "dir", "C", ".", "Project directory containing wpm.toml")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from wpm.toml)")
	rootCmd.PersistentFlags().StringVar(&g.shell, "shell", "", "HTML file whose body seeds the document")

	rootCmd.AddCommand(
		serveCmd(g),
		resolveCmd(g),
		routesCmd(g),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// config loads wpm.toml and applies flag overrides.
func (g *globals) config() (*config.Config, error) {
	cfg, err := config.Load(g.dir)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (g *globals) logger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
}

// shellMarkup returns the document shell. Without --shell it is a single
// element carrying the configured app root id.
func (g *globals) shellMarkup(cfg *config.Config) (string, error) {
	if g.shell == "" {
		if cfg.AppRoot == "" {
			return "", nil
		}
		return `<main id="` + cfg.AppRoot + `"></main>`, nil
	}
	path := g.shell
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// app builds an App for one-shot commands.
func (g *globals) app(opts ...wpm.Option) (*wpm.App, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	shell, err := g.shellMarkup(cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]wpm.Option{wpm.WithLogger(g.logger(cfg)), wpm.WithShell(shell)}, opts...)
	return wpm.New(cfg, opts...)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
