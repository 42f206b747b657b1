// Package sigdiff computes structural diffs between old and new forms
// of a declaration: positional parameter diffs for functions and flat
// field diffs for structures.
package sigdiff

// ParameterChangeKind discriminates the variants of a ParameterDiff.
type ParameterChangeKind string

const (
	// CountChanged reports a different number of parameters.
	CountChanged ParameterChangeKind = "param_count_change"
	// TypeChanged reports a type mismatch at one position.
	TypeChanged ParameterChangeKind = "param_type_change"
	// NameChanged reports a rename at one position with matching types.
	NameChanged ParameterChangeKind = "param_name_change"
	// Added reports a trailing parameter present only in the new list.
	Added ParameterChangeKind = "param_added"
	// Removed reports a trailing parameter present only in the old list.
	Removed ParameterChangeKind = "param_removed"
)

// ParameterDiff is one typed change record. Which fields are meaningful
// depends on Kind:
//
//	CountChanged: OldCount, NewCount
//	TypeChanged:  Position, OldType, NewType, Name
//	NameChanged:  Position, OldName, NewName
//	Added:        Position, Raw
//	Removed:      Position, Raw
type ParameterDiff struct {
	Kind     ParameterChangeKind `json:"type"`
	Position int                 `json:"position,omitempty"`
	OldCount int                 `json:"old_count,omitempty"`
	NewCount int                 `json:"new_count,omitempty"`
	OldType  string              `json:"old_type,omitempty"`
	NewType  string              `json:"new_type,omitempty"`
	OldName  string              `json:"old_name,omitempty"`
	NewName  string              `json:"new_name,omitempty"`
	Name     string              `json:"param_name,omitempty"`
	Raw      string              `json:"param,omitempty"`
}

// FieldMove records a field whose text appears in both versions but at
// a different position.
type FieldMove struct {
	Position int    `json:"position"`
	Old      string `json:"old"`
	New      string `json:"new"`
}

// FieldDiff is the flat comparison of two struct field lists.
//
// A field whose text changed (rather than moved) shows up in both Added
// and Removed: this model cannot distinguish a retype from an unrelated
// removal plus addition, and deliberately does not guess.
type FieldDiff struct {
	Added     []string    `json:"added"`
	Removed   []string    `json:"removed"`
	Reordered []FieldMove `json:"modified"`
}

// Empty reports whether the diff carries no changes at all.
func (d FieldDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Reordered) == 0
}
