// Package csig decomposes C declaration headers into structured parts.
//
// It is a deliberately small text scanner, not a C parser: it tolerates
// macro-heavy, hand-written declarations by degrading to opaque fragments
// instead of failing.
package csig

import (
	"strings"
)

// Parameter is one entry of a function's parameter list, in source order.
type Parameter struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Raw  string `json:"full"`
}

// Normalize collapses all whitespace runs to single spaces and trims the
// result. It is idempotent, which downstream string comparisons rely on.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Decompose extracts the parameter list from a declaration header and
// splits it into ordered Parameter records.
//
// The parameter list is the first top-level parenthesized span in the
// header. A header with no such span carries no parameter information
// and yields nil, distinct from the empty list produced by "(void)".
func Decompose(header string) []Parameter {
	inner, ok := parameterSpan(header)
	if !ok {
		return nil
	}
	return DecomposeList(inner)
}

// DecomposeList splits bare parameter-list text (the content between
// the parens, without them) into ordered Parameter records. An empty
// list or a bare "void" yields no parameters. Commas nested inside
// (), [] or {} are not split points, so function-pointer parameters
// and array-bound expressions stay in one fragment.
func DecomposeList(inner string) []Parameter {
	inner = strings.TrimSpace(inner)
	if inner == "" || inner == "void" {
		return []Parameter{}
	}

	params := []Parameter{}
	depth := 0
	var current strings.Builder

	flush := func() {
		raw := Normalize(current.String())
		current.Reset()
		if raw == "" {
			return // trailing comma, dropped silently
		}
		params = append(params, splitParameter(raw))
	}

	for _, ch := range inner {
		switch ch {
		case '(', '[', '{':
			depth++
			current.WriteRune(ch)
		case ')', ']', '}':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				flush()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}
	flush()

	return params
}

// parameterSpan returns the text between the first depth-0 '(' and its
// matching ')'. The bool result is false when no balanced span exists.
func parameterSpan(header string) (string, bool) {
	start := -1
	depth := 0
	for i, ch := range header {
		switch ch {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				return header[start:i], true
			}
		}
	}
	return "", false
}

// splitParameter separates a normalized fragment into type and name.
// The last whitespace-delimited token is the candidate name; leading
// asterisks on it belong to the type (the pointer stays with the type).
// Fragments with no whitespace split, such as abstract declarators or
// "...", become a type with an empty name.
func splitParameter(raw string) Parameter {
	idx := strings.LastIndexByte(raw, ' ')
	if idx < 0 {
		return Parameter{Type: raw, Name: "", Raw: raw}
	}

	typ := raw[:idx]
	name := raw[idx+1:]
	for strings.HasPrefix(name, "*") {
		typ += " *"
		name = name[1:]
	}

	return Parameter{
		Type: strings.TrimSpace(typ),
		Name: strings.TrimSpace(name),
		Raw:  raw,
	}
}

// ReturnType reports the last whitespace token before the parameter
// list. Both sides of a diff are reduced the same way, so a change in
// the token signals a return-type change (pointer stars glued to the
// function name count, which is the intended conservative behavior).
// Empty when the header has no parameter list.
func ReturnType(header string) string {
	idx := strings.IndexByte(header, '(')
	if idx < 0 {
		return ""
	}
	before := strings.Fields(header[:idx])
	if len(before) == 0 {
		return ""
	}
	return before[len(before)-1]
}
