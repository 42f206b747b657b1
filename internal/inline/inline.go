// Package inline detects semantic drift in static inline header
// functions. Inline bodies are compiled into every caller, so a body
// change is an ABI-relevant event even when the signature is stable.
//
// The analysis is a text heuristic over regex-captured bodies: call-set
// differences, return-statement changes, and branch-count changes. It
// is independent of the signature diff engine.
package inline

import (
	"hash/fnv"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"kapidiff/internal/source"
)

// definitionRe captures simple single-block inline definitions. Bodies
// with nested braces escape the match and are skipped; that loss is
// acceptable for a heuristic.
var (
	definitionRe = regexp.MustCompile(`(?s)(?:static\s+)?inline\s+\w+\s+(\w+)\s*\([^)]*\)\s*\{[^}]*\}`)
	callRe       = regexp.MustCompile(`\b(\w+)\s*\(`)
	returnRe     = regexp.MustCompile(`return\s+([^;]+);`)
	ifRe         = regexp.MustCompile(`\bif\s*\(`)
)

// Definition is one captured inline function.
type Definition struct {
	Name     string
	File     string
	Body     string
	BodyHash uint64
}

// Signal is one detected semantic difference between two bodies.
type Signal struct {
	Type      string   `json:"type"`
	Functions []string `json:"functions,omitempty"`
	Details   string   `json:"details,omitempty"`
	OldCount  int      `json:"old_branches,omitempty"`
	NewCount  int      `json:"new_branches,omitempty"`
}

// Change is the report entry for one inline function whose body drifted.
type Change struct {
	Name          string   `json:"name"`
	File          string   `json:"file"`
	ChangeType    string   `json:"change_type"`
	OldDefinition string   `json:"old_definition"`
	NewDefinition string   `json:"new_definition"`
	Signals       []Signal `json:"semantic_analysis"`
}

// FindDefinitions scans include/**/*.h under the tree for inline
// function definitions. Unreadable files are skipped.
func FindDefinitions(files *source.Cache) map[string]Definition {
	defs := make(map[string]Definition)

	includeRoot := filepath.Join(files.Root(), "include")
	_ = filepath.WalkDir(includeRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, keep walking
		}
		if d.IsDir() || !strings.HasSuffix(path, ".h") {
			return nil
		}

		rel, relErr := filepath.Rel(files.Root(), path)
		if relErr != nil {
			return nil
		}
		lines, ok := files.Lines(rel)
		if !ok {
			return nil
		}
		content := strings.Join(lines, "\n")

		for _, m := range definitionRe.FindAllStringSubmatch(content, -1) {
			body := m[0]
			defs[m[1]] = Definition{
				Name:     m[1],
				File:     rel,
				Body:     body,
				BodyHash: hashBody(body),
			}
		}
		return nil
	})

	return defs
}

// Compare reports the inline functions whose bodies changed between
// the two trees, with the semantic signals for each, sorted by name.
func Compare(oldTree, newTree *source.Cache) []Change {
	oldDefs := FindDefinitions(oldTree)
	newDefs := FindDefinitions(newTree)

	var names []string
	for name := range oldDefs {
		if _, ok := newDefs[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var changes []Change
	for _, name := range names {
		oldDef, newDef := oldDefs[name], newDefs[name]
		if oldDef.BodyHash == newDef.BodyHash {
			continue
		}
		changes = append(changes, Change{
			Name:          name,
			File:          newDef.File,
			ChangeType:    "semantic_change",
			OldDefinition: oldDef.Body,
			NewDefinition: newDef.Body,
			Signals:       analyzeBodies(oldDef.Body, newDef.Body),
		})
	}
	return changes
}

func analyzeBodies(oldBody, newBody string) []Signal {
	var signals []Signal

	oldCalls := callSet(oldBody)
	newCalls := callSet(newBody)

	if added := setDiff(newCalls, oldCalls); len(added) > 0 {
		signals = append(signals, Signal{Type: "new_function_calls", Functions: added})
	}
	if removed := setDiff(oldCalls, newCalls); len(removed) > 0 {
		signals = append(signals, Signal{Type: "removed_function_calls", Functions: removed})
	}

	if !equalSlices(returns(oldBody), returns(newBody)) {
		signals = append(signals, Signal{
			Type:    "return_value_logic_change",
			Details: "Return statement modified",
		})
	}

	oldIfs := len(ifRe.FindAllString(oldBody, -1))
	newIfs := len(ifRe.FindAllString(newBody, -1))
	if oldIfs != newIfs {
		signals = append(signals, Signal{
			Type:     "control_flow_change",
			OldCount: oldIfs,
			NewCount: newIfs,
		})
	}

	return signals
}

func hashBody(body string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(body))
	return h.Sum64()
}

func callSet(body string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, m := range callRe.FindAllStringSubmatch(body, -1) {
		set[m[1]] = struct{}{}
	}
	return set
}

func setDiff(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func returns(body string) []string {
	var out []string
	for _, m := range returnRe.FindAllStringSubmatch(body, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
