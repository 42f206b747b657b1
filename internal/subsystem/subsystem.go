// Package subsystem buckets change records by kernel subsystem and
// detects cross-cutting change patterns within each bucket.
package subsystem

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule maps a subsystem name to path fragments; a file belongs to the
// first subsystem whose fragments match it.
type Rule struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

// DefaultRules covers the classic kernel subsystems. The order matters:
// earlier rules win.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "mm", Patterns: []string{"include/linux/mm"}},
		{Name: "fs", Patterns: []string{"include/linux/fs"}},
		{Name: "net", Patterns: []string{"include/linux/net", "include/net/"}},
		{Name: "drivers", Patterns: []string{"include/linux/device", "include/linux/driver"}},
		{Name: "sched", Patterns: []string{"include/linux/sched"}},
		{Name: "block", Patterns: []string{"include/linux/blk"}},
		{Name: "crypto", Patterns: []string{"include/linux/crypto", "include/crypto/"}},
	}
}

// LoadRules reads a YAML rules file of the form:
//
//	rules:
//	  - name: mm
//	    patterns: ["include/linux/mm"]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	return doc.Rules, nil
}

// Pattern is a detected cross-cutting change pattern in one subsystem.
type Pattern struct {
	Pattern     string   `json:"pattern"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Affected    []string `json:"affected"`
}

// Changes collects the change records attributed to one subsystem.
// FunctionNames and StructNames reference records in the main result
// rather than duplicating them.
type Changes struct {
	FunctionNames   []string  `json:"functions"`
	StructNames     []string  `json:"structs"`
	SemanticChanges []Pattern `json:"semantic_changes"`
}

// Classifier assigns files to subsystems.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier from rules, falling back to the
// kernel defaults when rules is empty.
func NewClassifier(rules []Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Categorize maps a file path to its subsystem, or "other".
func (c *Classifier) Categorize(filePath string) string {
	for _, rule := range c.rules {
		for _, p := range rule.Patterns {
			if strings.Contains(filePath, p) {
				return rule.Name
			}
		}
	}
	return "other"
}

// FuncChange is the minimal view of a function change the bucketing
// needs; the analyzer adapts its own records to this.
type FuncChange struct {
	Name        string
	File        string
	Modified    bool
	ParamsAdded bool
}

// StructView is the minimal view of a struct change.
type StructView struct {
	Name        string
	File        string
	Modified    bool
	FieldsAdded int
}

// widespreadParamThreshold and structEvolutionThreshold gate pattern
// emission; below them the signal is noise.
const (
	widespreadParamThreshold = 5
	structEvolutionThreshold = 3
)

// Bucket groups changes by subsystem and runs pattern detection.
func (c *Classifier) Bucket(funcs []FuncChange, structs []StructView) map[string]Changes {
	out := make(map[string]Changes)

	for _, f := range funcs {
		subsys := c.Categorize(f.File)
		ch := out[subsys]
		ch.FunctionNames = append(ch.FunctionNames, f.Name)
		out[subsys] = ch
	}
	for _, s := range structs {
		subsys := c.Categorize(s.File)
		ch := out[subsys]
		ch.StructNames = append(ch.StructNames, s.Name)
		out[subsys] = ch
	}

	for subsys, ch := range out {
		ch.SemanticChanges = detectPatterns(subsys, funcs, structs, c)
		sort.Strings(ch.FunctionNames)
		sort.Strings(ch.StructNames)
		out[subsys] = ch
	}

	return out
}

func detectPatterns(subsys string, funcs []FuncChange, structs []StructView, c *Classifier) []Pattern {
	patterns := []Pattern{}

	var paramAdditions []string
	for _, f := range funcs {
		if c.Categorize(f.File) != subsys {
			continue
		}
		if f.Modified && f.ParamsAdded {
			paramAdditions = append(paramAdditions, f.Name)
		}
	}
	if len(paramAdditions) > widespreadParamThreshold {
		sort.Strings(paramAdditions)
		patterns = append(patterns, Pattern{
			Pattern:     "widespread_parameter_addition",
			Description: fmt.Sprintf("%d functions had parameters added", len(paramAdditions)),
			Impact:      "API extension",
			Affected:    paramAdditions,
		})
	}

	var extended []string
	for _, s := range structs {
		if c.Categorize(s.File) != subsys {
			continue
		}
		if s.Modified && s.FieldsAdded > 0 {
			extended = append(extended, s.Name)
		}
	}
	if len(extended) > structEvolutionThreshold {
		sort.Strings(extended)
		patterns = append(patterns, Pattern{
			Pattern:     "data_structure_evolution",
			Description: fmt.Sprintf("%d structures were extended", len(extended)),
			Impact:      "ABI potentially affected",
			Affected:    extended,
		})
	}

	return patterns
}
