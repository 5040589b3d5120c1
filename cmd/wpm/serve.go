package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tnhu/wpm"
	"github.com/tnhu/wpm/internal/config"
	"github.com/tnhu/wpm/pkg/bridge"
	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/middleware"
	"github.com/tnhu/wpm/pkg/transition"
)

func serveCmd(g *globals) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the application over WebSocket",
		Long: `Serve the application. Every WebSocket connection on /ws gets
its own navigation runtime; the browser sends events and history pops,
the server answers with history operations and the updated document.

Every other GET serves the shell document. /metrics exposes Prometheus
metrics when server.metrics is enabled.

Examples:
  wpm serve
  wpm serve --listen 0.0.0.0:8080
  wpm serve -C ./example --shell index.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			return runServe(cmd.Context(), g, cfg)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Address to listen on (default from wpm.toml)")

	return cmd
}

func runServe(ctx context.Context, g *globals, cfg *config.Config) error {
	logger := g.logger(cfg)
	shell, err := g.shellMarkup(cfg)
	if err != nil {
		return err
	}

	// Fail fast on a broken project instead of on the first connection.
	probe, err := wpm.New(cfg, wpm.WithLogger(logger), wpm.WithShell(shell))
	if err != nil {
		return err
	}
	routes := len(probe.Registry().Paths())
	probe.Close()

	mw := []transition.Middleware{middleware.OpenTelemetry()}
	if cfg.Server.Metrics {
		mw = append(mw, middleware.Prometheus())
	}
	base := []wpm.Option{wpm.WithShell(shell), wpm.WithMiddleware(mw...)}

	ws := bridge.New(func(s *bridge.Session) (bridge.Runtime, error) {
		app, err := wpm.New(cfg, append(base,
			wpm.WithLogger(s.Logger()),
			wpm.WithHistory(s.History()),
			wpm.OnSettled(func(*transition.Transition) { s.Flush() }),
		)...)
		if err != nil {
			return nil, err
		}
		return app, nil
	}, bridge.WithLogger(logger))
	defer ws.Close()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Handle("/ws", ws)
	if cfg.Server.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	shellPage, err := shellHandler(shell)
	if err != nil {
		return err
	}
	r.Get("/*", shellPage)

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	success("Serving %d routes on http://%s", routes, cfg.Server.Listen)
	info("WebSocket: ws://%s/ws", cfg.Server.Listen)

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// shellHandler serves the shell document. The client connects to /ws
// and receives the rendered document from its session.
func shellHandler(shell string) (http.HandlerFunc, error) {
	doc := dom.NewDocument()
	if err := doc.SetBody(shell); err != nil {
		return nil, err
	}
	page := []byte("<!DOCTYPE html>\n" + doc.HTML())

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}, nil
}
