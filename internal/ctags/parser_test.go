package ctags

import (
	"strings"
	"testing"
)

const sampleTags = `{"_type":"ptag","name":"!_TAG_FILE_FORMAT","path":"2"}
{"_type":"tag","name":"dma_map","path":"include/linux/dma.h","line":42,"kind":"prototype","signature":"(struct device *dev, void *ptr)"}
{"_type":"tag","name":"dma_map","path":"drivers/dma/core.c","line":100,"kind":"function","signature":"(struct device *dev, void *ptr)"}
{"_type":"tag","name":"device","path":"include/linux/device.h","line":10,"kind":"struct"}
{"_type":"tag","name":"PAGE_SIZE","path":"include/asm/page.h","line":5,"kind":"macro","signature":""}
{"_type":"tag","name":"atomic_t","path":"include/linux/types.h","line":20,"kind":"typedef"}
{"_type":"tag","name":"irq_state","path":"include/linux/irq.h","line":30,"kind":"enum"}
{"_type":"tag","name":"local_helper","path":"drivers/net/helper.c","line":7,"kind":"function"}
{"_type":"tag","name":"v","path":"include/linux/dma.h","line":43,"kind":"variable"}
not json at all
`

func TestParse(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleTags), Filter{})
	if err != nil {
		t.Fatal(err)
	}

	if table.SkippedLines != 1 {
		t.Errorf("SkippedLines = %d, want 1", table.SkippedLines)
	}

	funcs := table.Kind(KindFunction)
	if len(funcs) != 2 {
		t.Errorf("functions = %d, want 2 (dma_map, local_helper)", len(funcs))
	}

	// Header definition must win over the .c definition seen later.
	if loc := funcs["dma_map"]; loc.File != "include/linux/dma.h" || loc.Line != 42 {
		t.Errorf("dma_map resolved to %s:%d, want header", loc.File, loc.Line)
	}

	if len(table.Kind(KindStruct)) != 1 || len(table.Kind(KindMacro)) != 1 {
		t.Error("struct/macro buckets incomplete")
	}
	if len(table.Kind(KindTypedef)) != 1 || len(table.Kind(KindEnum)) != 1 {
		t.Error("typedef/enum buckets incomplete")
	}
	if table.Count() != 6 {
		t.Errorf("Count() = %d, want 6", table.Count())
	}
}

func TestParseHeaderWinsRegardlessOfOrder(t *testing.T) {
	tags := `{"_type":"tag","name":"f","path":"drivers/f.c","line":1,"kind":"function"}
{"_type":"tag","name":"f","path":"include/f.h","line":2,"kind":"prototype"}
{"_type":"tag","name":"g","path":"include/g.h","line":3,"kind":"prototype"}
{"_type":"tag","name":"g","path":"drivers/g.c","line":4,"kind":"function"}
`
	table, err := Parse(strings.NewReader(tags), Filter{})
	if err != nil {
		t.Fatal(err)
	}

	funcs := table.Kind(KindFunction)
	if funcs["f"].File != "include/f.h" {
		t.Errorf("f resolved to %s, header should win when seen second", funcs["f"].File)
	}
	if funcs["g"].File != "include/g.h" {
		t.Errorf("g resolved to %s, header should win when seen first", funcs["g"].File)
	}
}

func TestParsePublicOnlyFilter(t *testing.T) {
	table, err := Parse(strings.NewReader(sampleTags), Filter{PublicOnly: true})
	if err != nil {
		t.Fatal(err)
	}

	funcs := table.Kind(KindFunction)
	if _, ok := funcs["local_helper"]; ok {
		t.Error("driver-internal symbol should be filtered out")
	}
	if _, ok := funcs["dma_map"]; !ok {
		t.Error("public header symbol should survive the filter")
	}
}

func TestParseLastWinsBetweenEquals(t *testing.T) {
	tags := `{"_type":"tag","name":"m","path":"include/a.h","line":1,"kind":"macro"}
{"_type":"tag","name":"m","path":"include/b.h","line":9,"kind":"macro"}
`
	table, err := Parse(strings.NewReader(tags), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if loc := table.Kind(KindMacro)["m"]; loc.File != "include/b.h" {
		t.Errorf("m resolved to %s, want last definition between two headers", loc.File)
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile("/nonexistent/tags.json", Filter{}); err == nil {
		t.Error("expected error for missing tags file")
	}
}
