// Package ctags ingests Universal Ctags JSON-lines output and exposes
// the symbol universe of one source tree as coordinate maps.
package ctags

// Kind is the closed set of symbol kinds the analyzer understands.
// Keeping it closed forces every dispatch site to decide what a new
// kind means before it can ship.
type Kind string

const (
	KindFunction Kind = "function"
	KindStruct   Kind = "struct"
	KindMacro    Kind = "macro"
	KindTypedef  Kind = "typedef"
	KindEnum     Kind = "enum"
)

// Kinds lists all supported kinds in report order.
var Kinds = []Kind{KindFunction, KindStruct, KindMacro, KindTypedef, KindEnum}

// SymbolLocation is one symbol's coordinates into a source tree, as
// reported by ctags. The tag index supplies coordinates only; the
// declaration text is read from the tree itself.
type SymbolLocation struct {
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Signature string `json:"signature"` // ctags signature hint, e.g. "(int a, char *b)"
	Scope     string `json:"scope,omitempty"`
}

// SymbolTable holds one tree's symbols grouped by kind, keyed by name.
type SymbolTable struct {
	byKind map[Kind]map[string]SymbolLocation

	// SkippedLines counts malformed JSON lines encountered during
	// parsing. Informational only; parsing never fails on them.
	SkippedLines int
}

// NewSymbolTable returns an empty table with all kind buckets present.
func NewSymbolTable() *SymbolTable {
	byKind := make(map[Kind]map[string]SymbolLocation, len(Kinds))
	for _, k := range Kinds {
		byKind[k] = make(map[string]SymbolLocation)
	}
	return &SymbolTable{byKind: byKind}
}

// Kind returns the name→location map for one kind. The map is shared,
// not copied; callers must treat it as read-only.
func (t *SymbolTable) Kind(k Kind) map[string]SymbolLocation {
	return t.byKind[k]
}

// Count returns the total number of symbols across all kinds.
func (t *SymbolTable) Count() int {
	n := 0
	for _, m := range t.byKind {
		n += len(m)
	}
	return n
}
