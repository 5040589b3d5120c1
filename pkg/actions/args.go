package actions

import (
	"strconv"
	"strings"
	"unicode"
)

// Lookup resolves a data path such as "args.id" or "model.items[1]".
type Lookup func(path string) (any, bool)

// ResolveArgs turns argument tokens into values. A token that resolves
// through lookup yields the resolved value, with numeric strings turned
// into numbers. Otherwise true and false are booleans, tokens that do not
// start with a letter are numeric or quoted literals, and any other
// identifier resolves to nil.
func ResolveArgs(tokens []string, lookup Lookup) []any {
	out := make([]any, len(tokens))
	for i, tok := range tokens {
		out[i] = resolveArg(tok, lookup)
	}
	return out
}

func resolveArg(tok string, lookup Lookup) any {
	if lookup != nil && !quoted(tok) {
		if v, ok := lookup(tok); ok {
			if str, isStr := v.(string); isStr {
				if n, ok := number(str); ok {
					return n
				}
			}
			return v
		}
	}
	switch tok {
	case "true":
		return true
	case "false":
		return false
	}
	if tok == "" || unicode.IsLetter(rune(tok[0])) {
		return nil
	}
	if n, ok := number(tok); ok {
		return n
	}
	return unquote(tok)
}

// number parses s as an int or a float64. Words such as "Inf" or "NaN"
// stay strings.
func number(s string) (any, bool) {
	if s == "" || !strings.ContainsAny(s[:1], "+-.0123456789") || !strings.ContainsAny(s[len(s)-1:], ".0123456789") {
		return nil, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(n), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func quoted(tok string) bool {
	return len(tok) >= 2 && (tok[0] == '\'' || tok[0] == '"') && tok[len(tok)-1] == tok[0]
}

// unquote strips one leading and one trailing quote.
func unquote(tok string) string {
	tok = strings.TrimPrefix(tok, "'")
	tok = strings.TrimPrefix(tok, `"`)
	tok = strings.TrimSuffix(tok, "'")
	return strings.TrimSuffix(tok, `"`)
}
