package router

import (
	"errors"
	"regexp"
	"strings"
)

// Pattern errors.
var (
	ErrEmptyPattern      = errors.New("router: empty pattern")
	ErrUnbalancedPattern = errors.New("router: unbalanced optional group")
)

// Pattern is a compiled route template.
//
// Template syntax:
//   - :name captures one path segment (no "/")
//   - *name captures the remainder of the path, "/" included
//   - [...] makes the enclosed part optional
//
// Every other character matches literally.
type Pattern struct {
	source string
	names  []string
	re     *regexp.Regexp
}

// Compile compiles a route template.
func Compile(template string) (*Pattern, error) {
	if template == "" {
		return nil, ErrEmptyPattern
	}

	var b strings.Builder
	var names []string
	depth := 0

	b.WriteByte('^')
	for i := 0; i < len(template); {
		c := template[i]
		switch {
		case c == '[':
			depth++
			b.WriteString("(?:")
			i++
		case c == ']':
			if depth == 0 {
				return nil, ErrUnbalancedPattern
			}
			depth--
			b.WriteString(")?")
			i++
		case (c == ':' || c == '*') && i+1 < len(template) && isNameChar(template[i+1]):
			j := i + 1
			for j < len(template) && isNameChar(template[j]) {
				j++
			}
			names = append(names, template[i+1:j])
			if c == ':' {
				b.WriteString("([^/]*)")
			} else {
				b.WriteString("(.*)")
			}
			i = j
		default:
			j := i + 1
			for j < len(template) && !isSpecial(template, j) {
				j++
			}
			b.WriteString(regexp.QuoteMeta(template[i:j]))
			i = j
		}
	}
	if depth != 0 {
		return nil, ErrUnbalancedPattern
	}
	b.WriteByte('$')

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &Pattern{source: template, names: names, re: re}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(template string) *Pattern {
	p, err := Compile(template)
	if err != nil {
		panic(err)
	}
	return p
}

func isNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpecial(s string, i int) bool {
	switch s[i] {
	case '[', ']':
		return true
	case ':', '*':
		return i+1 < len(s) && isNameChar(s[i+1])
	}
	return false
}

// String returns the template the pattern was compiled from.
func (p *Pattern) String() string { return p.source }

// Names returns the parameter names in template order.
func (p *Pattern) Names() []string {
	return append([]string(nil), p.names...)
}

// Match matches a path (no query string or fragment) and returns the raw,
// still-escaped captures by name. Optional parameters that did not
// participate map to "".
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}
