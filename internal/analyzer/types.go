// Package analyzer compares the symbol universes of two source tree
// snapshots and produces the per-symbol change records consumed by the
// report renderers.
package analyzer

import (
	"kapidiff/internal/abi"
	"kapidiff/internal/inline"
	"kapidiff/internal/sigdiff"
	"kapidiff/internal/subsystem"
)

// ChangeType tags what happened to a symbol between the two versions.
// A symbol absent from the result is identical across versions — never
// "not analyzed".
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// FunctionChange is one function-level change record.
type FunctionChange struct {
	Name       string     `json:"name"`
	ChangeType ChangeType `json:"change_type"`
	File       string     `json:"file"`

	// For added/removed symbols: the coordinates and ctags hint of the
	// side the symbol exists on.
	Line      int    `json:"line,omitempty"`
	Signature string `json:"signature,omitempty"`

	// For modified symbols.
	OldSignature      string                 `json:"old_signature,omitempty"`
	NewSignature      string                 `json:"new_signature,omitempty"`
	OldLine           int                    `json:"old_line,omitempty"`
	NewLine           int                    `json:"new_line,omitempty"`
	ReturnTypeChanged bool                   `json:"return_type_changed,omitempty"`
	OldReturnType     string                 `json:"old_return_type,omitempty"`
	NewReturnType     string                 `json:"new_return_type,omitempty"`
	ParameterChanges  []sigdiff.ParameterDiff `json:"parameter_changes,omitempty"`
}

// StructChange is one structure-level change record.
type StructChange struct {
	Name       string     `json:"name"`
	ChangeType ChangeType `json:"change_type"`
	File       string     `json:"file"`

	OldFields    []string           `json:"old_fields,omitempty"`
	NewFields    []string           `json:"new_fields,omitempty"`
	FieldChanges *sigdiff.FieldDiff `json:"field_changes,omitempty"`
}

// MacroChange is one macro-level change record. Macros are compared on
// their ctags signature hint only; no body extraction is attempted.
type MacroChange struct {
	Name          string     `json:"name"`
	ChangeType    ChangeType `json:"change_type"`
	File          string     `json:"file"`
	OldDefinition string     `json:"old_definition,omitempty"`
	NewDefinition string     `json:"new_definition,omitempty"`
}

// TypeChange is one typedef- or enum-level change record. Only
// presence is tracked for these kinds.
type TypeChange struct {
	Name       string     `json:"name"`
	ChangeType ChangeType `json:"change_type"`
	File       string     `json:"file"`
}

// CategorySummary counts changes within one symbol kind.
type CategorySummary struct {
	Added        int `json:"added"`
	Removed      int `json:"removed"`
	Modified     int `json:"modified"`
	TotalChanges int `json:"total_changes"`
}

// Result is the complete output of one analysis run. Field names and
// nesting are a stable contract consumed by the report renderers.
type Result struct {
	RunID       string `json:"run_id"`
	OldVersion  string `json:"old_version"`
	NewVersion  string `json:"new_version"`
	GeneratedAt string `json:"generated_at"`
	DurationMs  int64  `json:"duration_ms"`

	Functions []FunctionChange `json:"functions"`
	Structs   []StructChange   `json:"structs"`
	Macros    []MacroChange    `json:"macros"`
	Typedefs  []TypeChange     `json:"typedefs"`
	Enums     []TypeChange     `json:"enums"`

	Summary   map[string]CategorySummary `json:"summary"`
	ABIImpact abi.Report                 `json:"abi_impact"`

	Subsystems      map[string]subsystem.Changes `json:"subsystem_analysis,omitempty"`
	InlineFunctions []inline.Change              `json:"inline_functions,omitempty"`
}
