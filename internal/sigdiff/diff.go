package sigdiff

import (
	"fmt"

	"kapidiff/internal/csig"
)

// CompareParameters computes the ordered change records between two
// parameter lists.
//
// The comparison is strictly positional: no realignment by name or type
// similarity is attempted. A parameter inserted in the middle therefore
// cascades into type/name mismatches for every later position plus a
// trailing Added or Removed record. That is intentional — positional
// diffing is cheap, deterministic, and over-reports rather than missing
// a change. Callers must not assume the diff is semantically minimal.
func CompareParameters(oldParams, newParams []csig.Parameter) []ParameterDiff {
	var changes []ParameterDiff

	if len(oldParams) != len(newParams) {
		changes = append(changes, ParameterDiff{
			Kind:     CountChanged,
			OldCount: len(oldParams),
			NewCount: len(newParams),
		})
	}

	overlap := len(oldParams)
	if len(newParams) < overlap {
		overlap = len(newParams)
	}

	for i := 0; i < overlap; i++ {
		oldP, newP := oldParams[i], newParams[i]

		if oldP.Type != newP.Type {
			changes = append(changes, ParameterDiff{
				Kind:     TypeChanged,
				Position: i,
				OldType:  oldP.Type,
				NewType:  newP.Type,
				Name:     positionName(oldP, newP, i),
			})
		}

		if oldP.Name != "" && newP.Name != "" && oldP.Name != newP.Name {
			changes = append(changes, ParameterDiff{
				Kind:     NameChanged,
				Position: i,
				OldName:  oldP.Name,
				NewName:  newP.Name,
			})
		}
	}

	for i := len(oldParams); i < len(newParams); i++ {
		changes = append(changes, ParameterDiff{
			Kind:     Added,
			Position: i,
			Raw:      newParams[i].Raw,
		})
	}
	for i := len(newParams); i < len(oldParams); i++ {
		changes = append(changes, ParameterDiff{
			Kind:     Removed,
			Position: i,
			Raw:      oldParams[i].Raw,
		})
	}

	return changes
}

// positionName picks a display name for a position, preferring the new
// side, then the old, then a synthesized placeholder.
func positionName(oldP, newP csig.Parameter, i int) string {
	if newP.Name != "" {
		return newP.Name
	}
	if oldP.Name != "" {
		return oldP.Name
	}
	return fmt.Sprintf("param%d", i)
}

// CompareFields computes the flat diff of two field lists.
//
// Added and Removed are set differences emitted in source order, so the
// result is deterministic regardless of map iteration. Reordered holds
// every overlapping position where the two lists disagree but both
// texts exist elsewhere in the other version — the field moved rather
// than changed.
func CompareFields(oldFields, newFields []string) FieldDiff {
	oldSet := make(map[string]struct{}, len(oldFields))
	for _, f := range oldFields {
		oldSet[f] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newFields))
	for _, f := range newFields {
		newSet[f] = struct{}{}
	}

	diff := FieldDiff{Added: []string{}, Removed: []string{}, Reordered: []FieldMove{}}

	seen := make(map[string]struct{})
	for _, f := range newFields {
		if _, ok := oldSet[f]; ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		diff.Added = append(diff.Added, f)
	}
	seen = make(map[string]struct{})
	for _, f := range oldFields {
		if _, ok := newSet[f]; ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		diff.Removed = append(diff.Removed, f)
	}

	overlap := len(oldFields)
	if len(newFields) < overlap {
		overlap = len(newFields)
	}
	for i := 0; i < overlap; i++ {
		oldF, newF := oldFields[i], newFields[i]
		if oldF == newF {
			continue
		}
		_, oldStillExists := newSet[oldF]
		_, newExistedBefore := oldSet[newF]
		if oldStillExists && newExistedBefore {
			diff.Reordered = append(diff.Reordered, FieldMove{Position: i, Old: oldF, New: newF})
		}
	}

	return diff
}
