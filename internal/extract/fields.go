package extract

import (
	"strings"

	"kapidiff/internal/source"
)

// ExtractFields captures the member-declaration lines of a struct body.
//
// The scan starts at approxLine and looks for the entry line: one that
// mentions "struct", the target name, and an opening brace. From there
// a per-line brace count tracks nesting; extraction stops when the
// count returns to zero, exclusive of the closing line. A member line
// is any line inside the body that carries a ';' and is not a pure
// comment; the text before the first ';' is the field declaration.
//
// Nested anonymous unions and structs are not unwrapped: their member
// lines are captured individually. Field comparison is a flat
// line-level diff, intentionally.
//
// The result is nil when the struct body was never found (no data) and
// an empty non-nil slice for a body with no members; callers use the
// distinction to tell "unknown" from "empty".
func ExtractFields(files *source.Cache, relPath, structName string, approxLine int) []string {
	lines, ok := files.Lines(relPath)
	if !ok {
		return nil
	}

	start := approxLine - 1
	if start < 0 {
		start = 0
	}
	end := start + FieldWindow
	if end > len(lines) {
		end = len(lines)
	}

	var fields []string
	inStruct := false
	braceCount := 0

	for i := start; i < end; i++ {
		line := strings.TrimSpace(lines[i])

		if !inStruct {
			if strings.Contains(line, "struct") && strings.Contains(line, structName) && strings.Contains(line, "{") {
				inStruct = true
				braceCount = 1
				fields = []string{}
			}
			continue
		}

		braceCount += strings.Count(line, "{") - strings.Count(line, "}")
		if braceCount == 0 {
			break
		}

		if strings.Contains(line, ";") && !strings.HasPrefix(line, "//") {
			field := strings.TrimSpace(line[:strings.IndexByte(line, ';')])
			if field != "" && !strings.HasPrefix(field, "/*") {
				fields = append(fields, field)
			}
		}
	}

	return fields
}
