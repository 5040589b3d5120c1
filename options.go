package wpm

import (
	"log/slog"

	"github.com/tnhu/wpm/pkg/history"
	"github.com/tnhu/wpm/pkg/transition"
)

// Option configures an App.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	history    history.History
	shell      string
	middleware []transition.Middleware
	onSettled  []func(*transition.Transition)
}

// WithLogger sets the logger. The default logs text to stderr at the
// configured level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHistory sets the history the engine writes to. The default is an
// in-memory history.
func WithHistory(h history.History) Option {
	return func(o *options) { o.history = h }
}

// WithShell seeds the document body. Routes without a parent outlet render
// into the element whose id is the configured app root.
func WithShell(markup string) Option {
	return func(o *options) { o.shell = markup }
}

// WithMiddleware adds transition stage middleware.
func WithMiddleware(mw ...transition.Middleware) Option {
	return func(o *options) { o.middleware = append(o.middleware, mw...) }
}

// OnSettled adds a callback run when a transition settles.
func OnSettled(fn func(*transition.Transition)) Option {
	return func(o *options) { o.onSettled = append(o.onSettled, fn) }
}
