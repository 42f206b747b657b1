package version

import (
	"strings"
	"testing"
)

func restore(t *testing.T) {
	t.Helper()
	v, c, b := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = v, c, b })
}

func TestInfoAbbreviatesCommit(t *testing.T) {
	restore(t)

	tests := []struct {
		version string
		commit  string
		want    string
	}{
		{"1.0.0", "unknown", "1.0.0"},
		{"1.0.0", "abc", "1.0.0"},
		{"1.0.0", "1234567", "1.0.0"},
		{"1.0.0", "abc1234567890", "1.0.0 (abc1234)"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Info(); got != tt.want {
			t.Errorf("Info() with commit %q = %q, want %q", tt.commit, got, tt.want)
		}
	}
}

func TestFullIncludesBuildMetadata(t *testing.T) {
	restore(t)
	Version, Commit, BuildDate = "1.2.3", "abcdef123456", "2026-01-15"

	got := Full()
	for _, part := range []string{"kapidiff version 1.2.3", "Commit: abcdef123456", "Built: 2026-01-15"} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, missing %q", got, part)
		}
	}
}

func TestDefaultVersionLooksLikeSemver(t *testing.T) {
	if len(strings.Split(Version, ".")) < 2 {
		t.Errorf("Version %q doesn't appear to be semver", Version)
	}
}
