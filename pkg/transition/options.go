package transition

import (
	"log/slog"
	"time"

	"github.com/tnhu/wpm/pkg/dom"
	"github.com/tnhu/wpm/pkg/history"
	"github.com/tnhu/wpm/pkg/observe"
)

// DefaultDestroyGrace is how long a destroyed instance's view stays in the
// document before it is removed.
const DefaultDestroyGrace = 3 * time.Second

// Templates renders a template id against a data context.
type Templates interface {
	Render(id string, data any) (string, error)
}

// Config holds Engine settings.
type Config struct {
	Logger *slog.Logger

	// History receives push and replace calls. When it also has an
	// OnPop(func(string)) method the engine subscribes to it.
	History history.History

	// Surface mounts rendered markup. Without one the engine runs
	// headless: hooks run but nothing is rendered.
	Surface dom.Surface

	// Root is the mount target of top-level routes without renderTo.
	Root dom.Element

	Templates Templates

	// Observer watches models of entered instances.
	Observer *observe.Observer

	// BasePath is stripped from incoming URIs and prepended to
	// history entries.
	BasePath string

	DestroyGrace time.Duration

	Middleware []Middleware

	// I18n returns the message snapshot given to new instances.
	I18n func() map[string]string

	OnSettled []func(*Transition)
}

// Option configures an Engine.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		Logger:       slog.Default(),
		DestroyGrace: DefaultDestroyGrace,
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithHistory sets the history the engine writes to.
func WithHistory(h history.History) Option {
	return func(c *Config) { c.History = h }
}

// WithSurface sets the surface views are mounted on.
func WithSurface(s dom.Surface) Option {
	return func(c *Config) { c.Surface = s }
}

// WithRoot sets the default mount target.
func WithRoot(el dom.Element) Option {
	return func(c *Config) { c.Root = el }
}

// WithTemplates sets the template renderer.
func WithTemplates(t Templates) Option {
	return func(c *Config) { c.Templates = t }
}

// WithObserver enables change detection on route models.
func WithObserver(o *observe.Observer) Option {
	return func(c *Config) { c.Observer = o }
}

// WithBasePath sets the application base path.
func WithBasePath(base string) Option {
	return func(c *Config) { c.BasePath = base }
}

// WithDestroyGrace sets the delay before a destroyed instance's view is
// removed. Zero removes it synchronously, in which case Destroy hooks run
// with the engine lock held and must not call back into the engine.
func WithDestroyGrace(d time.Duration) Option {
	return func(c *Config) { c.DestroyGrace = d }
}

// WithMiddleware appends stage middleware. The first middleware added is
// the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Config) { c.Middleware = append(c.Middleware, mw...) }
}

// WithI18n sets the message snapshot source.
func WithI18n(fn func() map[string]string) Option {
	return func(c *Config) { c.I18n = fn }
}

// OnSettled registers a callback run after each transition settles.
func OnSettled(fn func(*Transition)) Option {
	return func(c *Config) { c.OnSettled = append(c.OnSettled, fn) }
}
