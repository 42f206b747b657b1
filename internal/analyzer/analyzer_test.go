package analyzer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kapidiff/internal/ctags"
	"kapidiff/internal/logging"
	"kapidiff/internal/sigdiff"
	"kapidiff/internal/source"
	"kapidiff/internal/subsystem"
)

func writeTree(t *testing.T, files map[string]string) *source.Cache {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cache, err := source.NewCache(root, 0)
	if err != nil {
		t.Fatal(err)
	}
	return cache
}

func tagTable(t *testing.T, jsonLines string) *ctags.SymbolTable {
	t.Helper()
	table, err := ctags.Parse(strings.NewReader(jsonLines), ctags.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func quietLogger() *logging.Logger {
	return logging.New(logging.Config{Output: io.Discard, Level: logging.ErrorLevel})
}

func run(t *testing.T, a *Analyzer) *Result {
	t.Helper()
	result, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

func TestRunAddedAndRemovedFunctions(t *testing.T) {
	oldTree := writeTree(t, map[string]string{
		"include/api.h": "int old_only(void);\n",
	})
	newTree := writeTree(t, map[string]string{
		"include/api.h": "int new_only(int x);\n",
	})

	oldTags := tagTable(t, `{"_type":"tag","name":"old_only","path":"include/api.h","kind":"prototype","line":1}`)
	newTags := tagTable(t, `{"_type":"tag","name":"new_only","path":"include/api.h","kind":"prototype","line":1}`)

	a := New(oldTags, newTags, oldTree, newTree, Options{OldVersion: "v1", NewVersion: "v2"}, quietLogger())
	result := run(t, a)

	if len(result.Functions) != 2 {
		t.Fatalf("expected 2 function changes, got %d", len(result.Functions))
	}
	// Sorted by name: new_only before old_only.
	if result.Functions[0].Name != "new_only" || result.Functions[0].ChangeType != ChangeAdded {
		t.Errorf("first change = %+v", result.Functions[0])
	}
	if result.Functions[1].Name != "old_only" || result.Functions[1].ChangeType != ChangeRemoved {
		t.Errorf("second change = %+v", result.Functions[1])
	}
	if s := result.Summary["functions"]; s.Added != 1 || s.Removed != 1 || s.TotalChanges != 2 {
		t.Errorf("summary = %+v", s)
	}
	if result.RunID == "" || result.OldVersion != "v1" || result.NewVersion != "v2" {
		t.Errorf("run metadata incomplete: %+v", result)
	}
}

func TestRunModifiedFunction(t *testing.T) {
	oldTree := writeTree(t, map[string]string{
		"include/api.h": "int send_data(int fd, char *buf);\n",
	})
	newTree := writeTree(t, map[string]string{
		"include/api.h": "int send_data(int fd, char *buf, size_t len);\n",
	})

	oldTags := tagTable(t, `{"_type":"tag","name":"send_data","path":"include/api.h","kind":"prototype","line":1}`)
	newTags := tagTable(t, `{"_type":"tag","name":"send_data","path":"include/api.h","kind":"prototype","line":1}`)

	a := New(oldTags, newTags, oldTree, newTree, Options{}, quietLogger())
	result := run(t, a)

	if len(result.Functions) != 1 {
		t.Fatalf("expected 1 function change, got %d", len(result.Functions))
	}
	fc := result.Functions[0]
	if fc.ChangeType != ChangeModified {
		t.Fatalf("change type = %q", fc.ChangeType)
	}
	if fc.OldSignature != "int send_data(int fd, char *buf);" {
		t.Errorf("old signature = %q", fc.OldSignature)
	}
	var kinds []sigdiff.ParameterChangeKind
	for _, pc := range fc.ParameterChanges {
		kinds = append(kinds, pc.Kind)
	}
	want := []sigdiff.ParameterChangeKind{sigdiff.CountChanged, sigdiff.Added}
	if len(kinds) != len(want) {
		t.Fatalf("parameter change kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}

	// A parameter count change is a high-severity ABI break.
	if result.ABIImpact.TotalBreakingChanges != 1 || result.ABIImpact.HighSeverity != 1 {
		t.Errorf("abi impact = %+v", result.ABIImpact)
	}
}

func TestRunUnterminatedDeclarationProducesNoDiff(t *testing.T) {
	// Neither side terminates within the scan window, so the analyzer
	// has no data and must not claim a modification.
	filler := strings.Repeat("int x\n", 30)
	oldTree := writeTree(t, map[string]string{"include/api.h": "int f(int a\n" + filler})
	newTree := writeTree(t, map[string]string{"include/api.h": "long f(long a\n" + filler})

	oldTags := tagTable(t, `{"_type":"tag","name":"f","path":"include/api.h","kind":"prototype","line":1}`)
	newTags := tagTable(t, `{"_type":"tag","name":"f","path":"include/api.h","kind":"prototype","line":1}`)

	a := New(oldTags, newTags, oldTree, newTree, Options{}, quietLogger())
	result := run(t, a)

	if len(result.Functions) != 0 {
		t.Errorf("expected no function changes, got %+v", result.Functions)
	}
}

func TestRunModifiedStruct(t *testing.T) {
	oldTree := writeTree(t, map[string]string{
		"include/dev.h": "struct device {\n\tint id;\n\tint flags;\n};\n",
	})
	newTree := writeTree(t, map[string]string{
		"include/dev.h": "struct device {\n\tint id;\n};\n",
	})

	oldTags := tagTable(t, `{"_type":"tag","name":"device","path":"include/dev.h","kind":"struct","line":1}`)
	newTags := tagTable(t, `{"_type":"tag","name":"device","path":"include/dev.h","kind":"struct","line":1}`)

	a := New(oldTags, newTags, oldTree, newTree, Options{}, quietLogger())
	result := run(t, a)

	if len(result.Structs) != 1 {
		t.Fatalf("expected 1 struct change, got %d", len(result.Structs))
	}
	sc := result.Structs[0]
	if sc.ChangeType != ChangeModified || sc.FieldChanges == nil {
		t.Fatalf("struct change = %+v", sc)
	}
	if len(sc.FieldChanges.Removed) != 1 || sc.FieldChanges.Removed[0] != "int flags" {
		t.Errorf("removed fields = %v", sc.FieldChanges.Removed)
	}

	// Field removal is a high-severity ABI break.
	if result.ABIImpact.HighSeverity != 1 {
		t.Errorf("abi impact = %+v", result.ABIImpact)
	}
}

func TestRunMacroSignatureChange(t *testing.T) {
	tree := writeTree(t, map[string]string{"include/m.h": "#define X(a) (a)\n"})

	oldTags := tagTable(t, `{"_type":"tag","name":"X","path":"include/m.h","kind":"macro","line":1,"signature":"(a)"}`)
	newTags := tagTable(t, `{"_type":"tag","name":"X","path":"include/m.h","kind":"macro","line":1,"signature":"(a,b)"}`)

	a := New(oldTags, newTags, tree, tree, Options{}, quietLogger())
	result := run(t, a)

	if len(result.Macros) != 1 {
		t.Fatalf("expected 1 macro change, got %d", len(result.Macros))
	}
	mc := result.Macros[0]
	if mc.ChangeType != ChangeModified || mc.OldDefinition != "(a)" || mc.NewDefinition != "(a,b)" {
		t.Errorf("macro change = %+v", mc)
	}
}

func TestRunTypedefPresenceOnly(t *testing.T) {
	tree := writeTree(t, map[string]string{"include/t.h": "typedef int id_t;\n"})

	oldTags := tagTable(t, `{"_type":"tag","name":"old_t","path":"include/t.h","kind":"typedef","line":1}`)
	newTags := tagTable(t, `{"_type":"tag","name":"new_t","path":"include/t.h","kind":"typedef","line":1}`)

	a := New(oldTags, newTags, tree, tree, Options{}, quietLogger())
	result := run(t, a)

	if len(result.Typedefs) != 2 {
		t.Fatalf("expected 2 typedef changes, got %d", len(result.Typedefs))
	}
	if result.Typedefs[0].Name != "new_t" || result.Typedefs[0].ChangeType != ChangeAdded {
		t.Errorf("typedef[0] = %+v", result.Typedefs[0])
	}
	if result.Typedefs[1].Name != "old_t" || result.Typedefs[1].ChangeType != ChangeRemoved {
		t.Errorf("typedef[1] = %+v", result.Typedefs[1])
	}
}

func TestRunSubsystemBucketing(t *testing.T) {
	oldTree := writeTree(t, map[string]string{
		"include/linux/mm.h": "int alloc_page(int order);\n",
	})
	newTree := writeTree(t, map[string]string{
		"include/linux/mm.h": "int alloc_page(int order, int flags);\n",
	})

	oldTags := tagTable(t, `{"_type":"tag","name":"alloc_page","path":"include/linux/mm.h","kind":"prototype","line":1}`)
	newTags := tagTable(t, `{"_type":"tag","name":"alloc_page","path":"include/linux/mm.h","kind":"prototype","line":1}`)

	opts := Options{Subsystems: subsystem.NewClassifier(nil)}
	a := New(oldTags, newTags, oldTree, newTree, opts, quietLogger())
	result := run(t, a)

	mm, ok := result.Subsystems["mm"]
	if !ok {
		t.Fatalf("mm subsystem missing: %v", result.Subsystems)
	}
	if len(mm.FunctionNames) != 1 || mm.FunctionNames[0] != "alloc_page" {
		t.Errorf("mm functions = %v", mm.FunctionNames)
	}
}

func TestRunInlineHeuristic(t *testing.T) {
	oldTree := writeTree(t, map[string]string{
		"include/a.h": "static inline int f(int x) { return g(x); }\n",
	})
	newTree := writeTree(t, map[string]string{
		"include/a.h": "static inline int f(int x) { return h(x); }\n",
	})

	a := New(tagTable(t, ""), tagTable(t, ""), oldTree, newTree, Options{InlineHeuristic: true}, quietLogger())
	result := run(t, a)

	if len(result.InlineFunctions) != 1 || result.InlineFunctions[0].Name != "f" {
		t.Errorf("inline changes = %+v", result.InlineFunctions)
	}
}

func TestRunCancelledContext(t *testing.T) {
	tree := writeTree(t, map[string]string{
		"include/api.h": "int f(void);\n",
	})
	tags := tagTable(t, `{"_type":"tag","name":"f","path":"include/api.h","kind":"prototype","line":1}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(tags, tags, tree, tree, Options{}, quietLogger())
	if _, err := a.Run(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
