package subsystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCategorize(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		path string
		want string
	}{
		{"include/linux/mm_types.h", "mm"},
		{"include/linux/fs.h", "fs"},
		{"include/net/sock.h", "net"},
		{"include/linux/device.h", "drivers"},
		{"include/linux/blkdev.h", "block"},
		{"include/crypto/hash.h", "crypto"},
		{"include/linux/unrelated.h", "other"},
	}

	for _, tc := range tests {
		if got := c.Categorize(tc.path); got != tc.want {
			t.Errorf("Categorize(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestBucket(t *testing.T) {
	c := NewClassifier(nil)

	funcs := []FuncChange{
		{Name: "vm_alloc", File: "include/linux/mm.h", Modified: true},
		{Name: "sock_send", File: "include/net/sock.h"},
	}
	structs := []StructView{
		{Name: "vm_area", File: "include/linux/mm_types.h", Modified: true, FieldsAdded: 1},
	}

	buckets := c.Bucket(funcs, structs)

	mm, ok := buckets["mm"]
	if !ok {
		t.Fatal("expected mm bucket")
	}
	if len(mm.FunctionNames) != 1 || mm.FunctionNames[0] != "vm_alloc" {
		t.Errorf("mm functions = %v", mm.FunctionNames)
	}
	if len(mm.StructNames) != 1 {
		t.Errorf("mm structs = %v", mm.StructNames)
	}
	if _, ok := buckets["net"]; !ok {
		t.Error("expected net bucket")
	}
}

func TestBucketDetectsWidespreadParamAddition(t *testing.T) {
	c := NewClassifier(nil)

	var funcs []FuncChange
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		funcs = append(funcs, FuncChange{
			Name:        name,
			File:        "include/linux/fs.h",
			Modified:    true,
			ParamsAdded: true,
		})
	}

	buckets := c.Bucket(funcs, nil)

	fs := buckets["fs"]
	if len(fs.SemanticChanges) != 1 {
		t.Fatalf("expected one pattern, got %+v", fs.SemanticChanges)
	}
	p := fs.SemanticChanges[0]
	if p.Pattern != "widespread_parameter_addition" || len(p.Affected) != 6 {
		t.Errorf("pattern = %+v", p)
	}
}

func TestBucketBelowThresholdNoPattern(t *testing.T) {
	c := NewClassifier(nil)

	funcs := []FuncChange{
		{Name: "a", File: "include/linux/fs.h", Modified: true, ParamsAdded: true},
	}
	buckets := c.Bucket(funcs, nil)
	if len(buckets["fs"].SemanticChanges) != 0 {
		t.Errorf("single change must not trigger a pattern: %+v", buckets["fs"].SemanticChanges)
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `rules:
  - name: usb
    patterns: ["include/linux/usb"]
  - name: gpu
    patterns: ["include/drm/"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 2 || rules[0].Name != "usb" {
		t.Errorf("rules = %+v", rules)
	}

	c := NewClassifier(rules)
	if got := c.Categorize("include/linux/usb_gadget.h"); got != "usb" {
		t.Errorf("Categorize = %q, want usb", got)
	}
	// Custom rules replace the defaults entirely.
	if got := c.Categorize("include/linux/mm.h"); got != "other" {
		t.Errorf("Categorize = %q, want other under custom rules", got)
	}
}

func TestLoadRulesErrors(t *testing.T) {
	if _, err := LoadRules("/nonexistent/rules.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("rules: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(empty); err == nil {
		t.Error("expected error for empty rules")
	}
}
