package ctags

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// tagLine mirrors the fields of one Universal Ctags JSON record that
// the analyzer consumes. Produced by:
//
//	ctags -R -o tags.json --output-format=json --fields=+nS \
//	      --languages=C --kinds-C=+p <tree>/include <tree>/drivers
type tagLine struct {
	Type      string `json:"_type"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Kind      string `json:"kind"`
	Line      int    `json:"line"`
	Signature string `json:"signature"`
	Scope     string `json:"scope"`
	TypeRef   string `json:"typeref"`
}

// Filter restricts which tags enter the symbol table.
type Filter struct {
	// PublicOnly keeps only headers under an include/ directory, the
	// canonical public-API surface of a C tree.
	PublicOnly bool
}

// ParseFile reads a ctags JSON-lines file into a SymbolTable.
func ParseFile(path string, filter Filter) (*SymbolTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tags file: %w", err)
	}
	defer f.Close()
	return Parse(f, filter)
}

// Parse reads ctags JSON-lines from r. Malformed lines and pseudo-tags
// are skipped, never fatal. When the same name appears more than once,
// a header (.h) definition wins over a non-header one; between equals
// the last wins — headers carry the canonical API contract.
func Parse(r io.Reader, filter Filter) (*SymbolTable, error) {
	table := NewSymbolTable()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var tag tagLine
		if err := json.Unmarshal([]byte(line), &tag); err != nil {
			table.SkippedLines++
			continue
		}
		if tag.Type != "tag" || tag.Name == "" {
			continue
		}

		kind, ok := normalizeKind(tag.Kind)
		if !ok {
			continue
		}
		if filter.PublicOnly && !isPublicAPI(tag.Path) {
			continue
		}

		loc := SymbolLocation{
			Name:      tag.Name,
			Kind:      kind,
			File:      tag.Path,
			Line:      tag.Line,
			Signature: tag.Signature,
			Scope:     tag.Scope,
		}

		bucket := table.byKind[kind]
		existing, seen := bucket[tag.Name]
		if !seen {
			bucket[tag.Name] = loc
			continue
		}
		if isHeader(loc.File) || !isHeader(existing.File) {
			bucket[tag.Name] = loc
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tags stream: %w", err)
	}
	return table, nil
}

// normalizeKind folds ctags kinds onto the closed Kind set. Prototypes
// count as functions: a prototype is the API contract itself.
func normalizeKind(kind string) (Kind, bool) {
	switch kind {
	case "function", "prototype":
		return KindFunction, true
	case "struct":
		return KindStruct, true
	case "macro":
		return KindMacro, true
	case "typedef":
		return KindTypedef, true
	case "enum":
		return KindEnum, true
	default:
		return "", false
	}
}

func isHeader(path string) bool {
	return strings.HasSuffix(path, ".h") || strings.HasSuffix(path, ".H")
}

func isPublicAPI(path string) bool {
	if path == "" {
		return false
	}
	return strings.Contains(path, "include/") && strings.HasSuffix(path, ".h")
}
