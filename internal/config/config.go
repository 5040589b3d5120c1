package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"

	"github.com/tnhu/wpm/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "wpm.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "WPM_"

	// DefaultEvent is the DOM event that triggers actions without an explicit type.
	DefaultEvent = "click"

	// DefaultEventAlternative is the touch counterpart of DefaultEvent.
	DefaultEventAlternative = "touchstart"

	// DefaultDestroyGrace is how long a destroyed route keeps its view mounted.
	DefaultDestroyGrace = 3 * time.Second

	// DefaultListen is the default address of the websocket bridge.
	DefaultListen = "localhost:3000"
)

// Config represents the complete wpm.toml configuration.
type Config struct {
	// BasePath is prefixed to every URI written to history.
	BasePath string `toml:"base_path" env:"BASE_PATH"`

	// AppRoot is the id of the element routes render into when they have
	// no parent outlet. Empty means the document body.
	AppRoot string `toml:"app_root" env:"APP_ROOT"`

	// Events configures action dispatch.
	Events EventsConfig `toml:"events" envPrefix:"EVENTS_"`

	// Routes configures route lifecycle timing.
	Routes RoutesConfig `toml:"routes" envPrefix:"ROUTES_"`

	// I18n configures localized message loading.
	I18n I18nConfig `toml:"i18n" envPrefix:"I18N_"`

	// Paths contains project directories and files.
	Paths PathsConfig `toml:"paths" envPrefix:"PATHS_"`

	// Server configures the websocket bridge.
	Server ServerConfig `toml:"server" envPrefix:"SERVER_"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" env:"LOG_LEVEL"`

	configPath string
}

// EventsConfig contains action dispatch settings.
type EventsConfig struct {
	// Default is the event type used when an action omits one.
	Default string `toml:"default" env:"DEFAULT"`

	// Alternative is treated as Default and deduplicated against it.
	Alternative string `toml:"alternative" env:"ALTERNATIVE"`

	// DedupeWindow is how long an alternative event suppresses its twin.
	DedupeWindow time.Duration `toml:"dedupe_window" env:"DEDUPE_WINDOW"`
}

// RoutesConfig contains route lifecycle settings.
type RoutesConfig struct {
	// DestroyGrace delays view removal after a route is destroyed.
	DestroyGrace time.Duration `toml:"destroy_grace" env:"DESTROY_GRACE"`

	// ObserveInterval is the dirty-checking period. Zero disables the ticker.
	ObserveInterval time.Duration `toml:"observe_interval" env:"OBSERVE_INTERVAL"`
}

// I18nConfig contains i18n settings.
type I18nConfig struct {
	// Language is the BCP 47 tag of the active language.
	Language string `toml:"language" env:"LANGUAGE"`

	// Dir holds <lang>.toml message files.
	Dir string `toml:"dir" env:"DIR"`
}

// PathsConfig contains path configuration for project directories.
type PathsConfig struct {
	// Templates holds *.hbs route templates.
	Templates string `toml:"templates" env:"TEMPLATES"`

	// Manifest is the declarative route manifest.
	Manifest string `toml:"manifest" env:"MANIFEST"`
}

// ServerConfig contains bridge server settings.
type ServerConfig struct {
	// Listen is the host:port the server binds to.
	Listen string `toml:"listen" env:"LISTEN"`

	// Metrics enables the /metrics endpoint.
	Metrics bool `toml:"metrics" env:"METRICS"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Events: EventsConfig{
			Default:      DefaultEvent,
			Alternative:  DefaultEventAlternative,
			DedupeWindow: 400 * time.Millisecond,
		},
		Routes: RoutesConfig{
			DestroyGrace: DefaultDestroyGrace,
		},
		I18n: I18nConfig{
			Language: "en",
			Dir:      "locales",
		},
		Paths: PathsConfig{
			Templates: "templates",
			Manifest:  "routes.toml",
		},
		Server: ServerConfig{
			Listen:  DefaultListen,
			Metrics: true,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the specified directory. A missing
// wpm.toml is not an error: defaults and environment overrides apply.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := New()
		if err := cfg.applyEnv(); err != nil {
			return nil, err
		}
		cfg.applyDefaults()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("W020").WithPath(path).Wrap(err)
	}

	cfg := New()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.New("W020").
			WithPath(path).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error())
	}
	cfg.configPath = path

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("W020").
			WithDetail("Failed to parse environment overrides").
			Wrap(err)
	}
	return nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Events.Default == "" {
		c.Events.Default = DefaultEvent
	}
	c.Events.Default = strings.ToLower(c.Events.Default)
	c.Events.Alternative = strings.ToLower(c.Events.Alternative)

	if c.Routes.DestroyGrace < 0 {
		c.Routes.DestroyGrace = 0
	}
	if c.I18n.Language == "" {
		c.I18n.Language = "en"
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return errors.New("W021").WithDetail("base_path must start with /")
	}
	if c.Events.Default == c.Events.Alternative {
		return errors.New("W021").WithDetail("events.default and events.alternative must differ")
	}
	if c.Events.DedupeWindow < 0 {
		return errors.New("W021").WithDetail("events.dedupe_window must not be negative")
	}
	if c.Routes.ObserveInterval < 0 {
		return errors.New("W021").WithDetail("routes.observe_interval must not be negative")
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return errors.New("W021").WithDetail("log_level must be one of: debug, info, warn, error")
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	return logLevels[c.LogLevel]
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Resolve returns p relative to the config directory unless p is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.configPath == "" {
		return p
	}
	return filepath.Join(c.Dir(), p)
}
