package actions

import (
	"strings"
)

// Action is one entry of an action attribute.
type Action struct {
	// Type is the lowercased event type the action is bound to.
	Type string

	// Name is the handler name.
	Name string

	// Args are the raw argument tokens. Quoted literals keep their quotes.
	Args []string
}

// Actions maps event types to the action bound to them.
type Actions map[string]Action

// Parse parses an action attribute value of the form
//
//	[type:]name[(arg, arg, ...)][|[type:]name(...)]...
//
// Entries without a type bind to defaultEvent. When two entries bind the
// same type the first one wins. Entries without a name are skipped.
func Parse(spec, defaultEvent string) Actions {
	out := make(Actions)
	for _, entry := range splitOutside(spec, '|') {
		a, ok := parseEntry(entry, defaultEvent)
		if !ok {
			continue
		}
		if _, dup := out[a.Type]; !dup {
			out[a.Type] = a
		}
	}
	return out
}

func parseEntry(entry, defaultEvent string) (Action, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return Action{}, false
	}

	typ := defaultEvent
	sig := entry
	// A type prefix is only recognized before the argument list.
	head := entry
	if i := strings.IndexByte(entry, '('); i >= 0 {
		head = entry[:i]
	}
	if i := strings.IndexByte(head, ':'); i >= 0 {
		typ = strings.TrimSpace(head[:i])
		sig = entry[i+1:]
	}

	name, rawArgs := sig, ""
	if i := strings.IndexByte(sig, '('); i >= 0 {
		name = sig[:i]
		rawArgs = sig[i+1:]
		if j := lastIndexOutside(rawArgs, ')'); j >= 0 {
			rawArgs = rawArgs[:j]
		}
	}
	name = strings.TrimSpace(name)
	if name == "" || typ == "" {
		return Action{}, false
	}
	return Action{
		Type: strings.ToLower(typ),
		Name: name,
		Args: splitArgs(rawArgs),
	}, true
}

// splitArgs splits an argument list on commas and whitespace that are not
// inside single or double quotes.
func splitArgs(raw string) []string {
	var (
		args  []string
		cur   strings.Builder
		quote byte
	)
	flush := func() {
		if cur.Len() > 0 {
			args = append(args, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ',' || c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return args
}

// splitOutside splits s on sep occurrences that are not inside quotes.
func splitOutside(s string, sep byte) []string {
	var (
		parts []string
		start int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func lastIndexOutside(s string, c byte) int {
	idx := -1
	var quote byte
	for i := 0; i < len(s); i++ {
		switch {
		case quote != 0:
			if s[i] == quote {
				quote = 0
			}
		case s[i] == '\'' || s[i] == '"':
			quote = s[i]
		case s[i] == c:
			idx = i
		}
	}
	return idx
}
