package routepath

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// Parts contains the components of a navigation URI.
type Parts struct {
	// Path is the URI without query string and fragment.
	Path string

	// Query is the raw query string (without leading "?").
	Query string

	// Hash is the fragment (without leading "#").
	Hash string

	// HasHash reports whether the URI carried a "#", even an empty one.
	HasHash bool
}

// Path errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
)

// Split separates a URI into path, query and fragment. The fragment is cut
// first, so a "?" inside the fragment belongs to the fragment.
func Split(uri string) Parts {
	var p Parts
	rest, hash, found := strings.Cut(uri, "#")
	if found {
		p.Hash = hash
		p.HasHash = true
	}
	p.Path, p.Query, _ = strings.Cut(rest, "?")
	return p
}

// ParseQuery parses k=v&k2=v2 pairs. A key without "=" maps to true; every
// other value is a query-unescaped string. Later duplicates win.
func ParseQuery(raw string) map[string]any {
	params := make(map[string]any)
	if raw == "" {
		return params
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		k, v, hasValue := strings.Cut(pair, "=")
		if k == "" {
			continue
		}
		key := Decode(k)
		if !hasValue {
			params[key] = true
			continue
		}
		params[key] = Decode(v)
	}
	return params
}

// Decode query-unescapes s, returning s unchanged when it holds an invalid
// escape sequence.
func Decode(s string) string {
	if d, err := url.QueryUnescape(s); err == nil {
		return d
	}
	return s
}

// DecodeSegment path-unescapes a captured parameter.
func DecodeSegment(segment string) (string, error) {
	if strings.Contains(segment, "%") {
		if err := validatePercentEscapes(segment); err != nil {
			return "", err
		}
	}
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	return decoded, nil
}

// validatePercentEscapes checks that all percent-escapes are %XX hex pairs.
func validatePercentEscapes(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHexDigit(s[i+1]) || !isHexDigit(s[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Serialize renders params as "?k=v&k2=v2" with keys sorted and values
// query-escaped. Empty maps serialize to "". A value of true serializes as
// the bare key so it parses back to true.
func Serialize(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		switch v := params[k].(type) {
		case bool:
			if v {
				continue
			}
			b.WriteString("=false")
		case string:
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		default:
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(toString(v)))
		}
	}
	return b.String()
}

// SerializeParams is Serialize for path parameters.
func SerializeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	m := make(map[string]any, len(params))
	for k, v := range params {
		m[k] = v
	}
	return Serialize(m)
}

// AppendQuery appends serialized params to uri, joining with "&" when uri
// already carries a query string. The fragment stays last.
func AppendQuery(uri string, params map[string]any) string {
	q := Serialize(params)
	if q == "" {
		return uri
	}
	rest, hash, hasHash := strings.Cut(uri, "#")
	if strings.Contains(rest, "?") {
		rest += "&" + q[1:]
	} else {
		rest += q
	}
	if hasHash {
		rest += "#" + hash
	}
	return rest
}

// JoinNested builds the full path of a nested route from its parent path
// and suffix, collapsing the duplicate slashes the join can produce.
func JoinNested(parent, suffix string) string {
	path := parent + suffix
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	return path
}

// StripBase removes base from the front of uri. The result always starts
// with "/" when uri did.
func StripBase(uri, base string) string {
	if base == "" || base == "/" {
		return uri
	}
	if uri == base {
		return "/"
	}
	if strings.HasPrefix(uri, base) {
		rest := uri[len(base):]
		if rest != "" && (rest[0] == '/' || rest[0] == '?' || rest[0] == '#') {
			if rest[0] != '/' {
				rest = "/" + rest
			}
			return rest
		}
	}
	return uri
}

// WithBase prefixes uri with base.
func WithBase(uri, base string) string {
	if base == "" || base == "/" {
		return uri
	}
	if uri == "/" {
		return base
	}
	return base + uri
}

// IsLocal reports whether href is a same-origin relative path that may be
// handed to the router. Absolute and protocol-relative URLs are not.
func IsLocal(href string) bool {
	if href == "" || strings.HasPrefix(href, "//") || strings.Contains(href, "\\") {
		return false
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return false
	}
	return strings.HasPrefix(href, "/")
}
