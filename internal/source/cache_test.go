package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "include")
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
	content := "int foo(void);\nstruct bar {\n\tint x;\n};\n"
	if err := os.WriteFile(filepath.Join(path, "api.h"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cache, err := NewCache(dir, 0)
	if err != nil {
		t.Fatal(err)
	}

	lines, ok := cache.Lines("include/api.h")
	if !ok {
		t.Fatal("expected file to be readable")
	}
	if lines[0] != "int foo(void);" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if len(lines) != 5 { // trailing newline yields a final empty line
		t.Errorf("expected 5 lines, got %d", len(lines))
	}

	// Second read must come from cache and agree.
	again, ok := cache.Lines("include/api.h")
	if !ok || len(again) != len(lines) {
		t.Error("cached read disagrees with first read")
	}
}

func TestCacheMissingFile(t *testing.T) {
	cache, err := NewCache(t.TempDir(), 16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ { // second hit exercises the negative entry
		if lines, ok := cache.Lines("include/nope.h"); ok || lines != nil {
			t.Errorf("missing file should yield (nil, false), got (%v, %v)", lines, ok)
		}
	}
}
