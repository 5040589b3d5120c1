package manifest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/tnhu/wpm/internal/errors"
)

// Format is the encoding of a manifest file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Manifest is a declarative list of routes.
type Manifest struct {
	Routes []Route `toml:"routes" yaml:"routes"`
}

// Route declares one route definition.
type Route struct {
	// Path is the route path, nested paths included ("/inbox|/:id").
	Path string `toml:"path" yaml:"path"`

	// Template is the id of a registered template. When Markup is set
	// and Template is empty the path is used as the id.
	Template string `toml:"template" yaml:"template"`

	// Markup is an inline template registered on install.
	Markup string `toml:"markup" yaml:"markup"`

	Title string `toml:"title" yaml:"title"`

	// Guard is a CEL expression over args, query and hash. The route is
	// only entered when it evaluates to true.
	Guard string `toml:"guard" yaml:"guard"`

	// Redirect is replaced in when the guard rejects.
	Redirect string `toml:"redirect" yaml:"redirect"`

	// Model is the static model of every instance.
	Model map[string]any `toml:"model" yaml:"model"`

	// Actions maps action names to URI templates navigated to when the
	// action runs, e.g. "/inbox/{{args.id}}/reply".
	Actions map[string]string `toml:"actions" yaml:"actions"`
}

// Load reads a manifest file. The format follows the extension.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("W030").WithPath(path).Wrap(err)
	}
	format, err := formatOf(path)
	if err != nil {
		return nil, errors.New("W030").WithPath(path).Wrap(err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, errors.New("W030").WithPath(path).Wrap(err)
	}
	return m, nil
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("manifest: unsupported extension %q", filepath.Ext(path))
}

// Parse decodes a manifest and checks that every route has a path.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
			return nil, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("manifest: unknown format %q", format)
	}
	for i, r := range m.Routes {
		if strings.TrimSpace(r.Path) == "" {
			return nil, fmt.Errorf("manifest: route %d has no path", i)
		}
	}
	return &m, nil
}
