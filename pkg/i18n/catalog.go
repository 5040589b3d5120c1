package i18n

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "en"

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// Catalog holds localized messages and the active language. Route data
// bags receive a Snapshot of the active language when they are created.
type Catalog struct {
	logger *slog.Logger
	bundle *goi18n.Bundle

	mu   sync.RWMutex
	lang language.Tag
	loc  *goi18n.Localizer
	ids  map[string]struct{}
}

// New creates an empty catalog for lang, which is also the fallback
// language of the bundle.
func New(lang string, opts ...Option) (*Catalog, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("i18n: parse language %q: %w", lang, err)
	}

	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)
	bundle.RegisterUnmarshalFunc("yml", yaml.Unmarshal)

	c := &Catalog{
		logger: slog.Default(),
		bundle: bundle,
		lang:   tag,
		loc:    goi18n.NewLocalizer(bundle, tag.String()),
		ids:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// LoadDir loads every message file in dir. Files are named after their
// language, e.g. "en.toml" or "fr.yaml". A missing dir loads nothing.
func (c *Catalog) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("i18n: read %s: %w", dir, err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() || !isMessageFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		mf, err := c.bundle.LoadMessageFile(path)
		if err != nil {
			return n, fmt.Errorf("i18n: load %s: %w", path, err)
		}
		c.addIDs(mf.Messages)
		c.logger.Debug("messages loaded", "file", path, "language", mf.Tag.String(), "messages", len(mf.Messages))
		n++
	}
	return n, nil
}

func isMessageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml", ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// AddMessages adds plain messages for lang.
func (c *Catalog) AddMessages(lang string, messages map[string]string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("i18n: parse language %q: %w", lang, err)
	}
	msgs := make([]*goi18n.Message, 0, len(messages))
	for id, other := range messages {
		msgs = append(msgs, &goi18n.Message{ID: id, Other: other})
	}
	if err := c.bundle.AddMessages(tag, msgs...); err != nil {
		return err
	}
	c.addIDs(msgs)
	return nil
}

func (c *Catalog) addIDs(msgs []*goi18n.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range msgs {
		c.ids[m.ID] = struct{}{}
	}
}

// SetLanguage switches the active language. Messages missing in lang fall
// back to the bundle's default language.
func (c *Catalog) SetLanguage(lang string) error {
	tag, err := language.Parse(lang)
	if err != nil {
		return fmt.Errorf("i18n: parse language %q: %w", lang, err)
	}
	c.mu.Lock()
	c.lang = tag
	c.loc = goi18n.NewLocalizer(c.bundle, tag.String())
	c.mu.Unlock()
	return nil
}

// Language returns the active language tag.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang.String()
}

// Languages returns the languages with loaded messages.
func (c *Catalog) Languages() []string {
	var out []string
	for _, tag := range c.bundle.LanguageTags() {
		out = append(out, tag.String())
	}
	slices.Sort(out)
	return out
}

// Localize returns message id in the active language, executed with data.
func (c *Catalog) Localize(id string, data map[string]any) (string, error) {
	c.mu.RLock()
	loc := c.loc
	c.mu.RUnlock()
	return loc.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
}

// Snapshot returns every known message in the active language. Messages
// that need template data are rendered without it.
func (c *Catalog) Snapshot() map[string]string {
	c.mu.RLock()
	loc := c.loc
	ids := make([]string, 0, len(c.ids))
	for id := range c.ids {
		ids = append(ids, id)
	}
	c.mu.RUnlock()

	out := make(map[string]string, len(ids))
	for _, id := range ids {
		msg, err := loc.Localize(&goi18n.LocalizeConfig{MessageID: id})
		if err != nil {
			continue
		}
		out[id] = msg
	}
	return out
}
