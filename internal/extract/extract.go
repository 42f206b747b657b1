// Package extract reconstructs declaration text from raw C source given
// a symbol's approximate location. It is a bounded line scanner, not a
// parser: it never fails hard, it degrades to "no information".
package extract

import (
	"strings"

	"kapidiff/internal/csig"
	"kapidiff/internal/source"
)

// Terminator describes how a declaration scan ended.
type Terminator string

const (
	// OpenBrace means the declaration is a definition; the header was
	// truncated at the opening body brace.
	OpenBrace Terminator = "open_brace"
	// Semicolon means the declaration is a prototype.
	Semicolon Terminator = "semicolon"
	// Unterminated means the scan window was exhausted (or the file is
	// unreadable) before either terminator appeared. Soft failure:
	// downstream stages treat the empty text as "no data", never as
	// "no change".
	Unterminated Terminator = "unterminated"
)

// DeclWindow bounds the scan for function declarations. Hand-written
// headers occasionally spread a declaration over many continuation
// lines; past 20 lines the text is macro-obscured beyond use.
const DeclWindow = 20

// FieldWindow bounds the scan for structure bodies, which run far
// longer than declarations.
const FieldWindow = 500

// RawDeclaration is the textual span of a declaration up to (excluding)
// its body or terminating semicolon.
type RawDeclaration struct {
	Text       string     `json:"text"`
	Terminator Terminator `json:"terminator"`
}

// Extract scans forward from approxLine (1-based, as reported by the
// tag index) and returns the declaration header for the symbol.
func Extract(files *source.Cache, relPath string, approxLine int) RawDeclaration {
	lines, ok := files.Lines(relPath)
	if !ok {
		return RawDeclaration{Terminator: Unterminated}
	}

	start := approxLine - 1
	if start < 0 {
		start = 0
	}
	if start >= len(lines) {
		return RawDeclaration{Terminator: Unterminated}
	}

	end := start + DeclWindow
	if end > len(lines) {
		end = len(lines)
	}

	var buf []string
	terminator := Unterminated
	for i := start; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		buf = append(buf, line)

		if strings.Contains(line, "{") {
			terminator = OpenBrace
			break
		}
		if strings.Contains(line, ";") {
			terminator = Semicolon
			break
		}
	}

	text := csig.Normalize(strings.Join(buf, " "))
	if idx := strings.IndexByte(text, '{'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}

	return RawDeclaration{Text: text, Terminator: terminator}
}
