// Package abi classifies structural diffs into binary-interface impact
// findings.
package abi

import (
	"fmt"

	"kapidiff/internal/sigdiff"
)

// Subject identifies what kind of symbol a finding is about.
type Subject string

const (
	SubjectFunction  Subject = "function"
	SubjectStructure Subject = "structure"
)

// Severity ranks how likely a change is to break compiled callers.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Finding is one ABI-impact judgment. Reasons are ordered and
// human-readable; they feed the report renderer unchanged.
type Finding struct {
	Subject        Subject  `json:"type"`
	Name           string   `json:"name"`
	File           string   `json:"file"`
	Severity       Severity `json:"severity"`
	Reasons        []string `json:"reasons"`
	Recommendation string   `json:"recommendation"`
}

// Report aggregates all findings of a run with counts by severity.
type Report struct {
	TotalBreakingChanges int       `json:"total_breaking_changes"`
	HighSeverity         int       `json:"high_severity"`
	MediumSeverity       int       `json:"medium_severity"`
	Changes              []Finding `json:"changes"`
}

// ClassifyFunction maps a function's parameter diff and return-type
// flag to a finding. Parameter renames alone are not ABI-breaking and
// yield nil: absence of a finding means "no ABI impact", not failure.
func ClassifyFunction(name, file string, paramChanges []sigdiff.ParameterDiff, returnTypeChanged bool) *Finding {
	var reasons []string

	countChanges := 0
	typeChanges := 0
	for _, c := range paramChanges {
		switch c.Kind {
		case sigdiff.CountChanged:
			countChanges++
		case sigdiff.TypeChanged:
			typeChanges++
		}
	}

	if countChanges > 0 {
		reasons = append(reasons, "Parameter count changed")
	}
	if typeChanges > 0 {
		reasons = append(reasons, fmt.Sprintf("%d parameter type(s) changed", typeChanges))
	}
	if returnTypeChanged {
		reasons = append(reasons, "Return type changed")
	}

	if len(reasons) == 0 {
		return nil
	}

	return &Finding{
		Subject:        SubjectFunction,
		Name:           name,
		File:           file,
		Severity:       SeverityHigh,
		Reasons:        reasons,
		Recommendation: "Update all callers",
	}
}

// ClassifyStruct maps a structure's field diff to a finding.
//
// Any field addition is reported as a potential break regardless of
// position. Only insertions before the end of a structure actually
// shift layout; trailing appends typically do not. The over-inclusive
// reading is kept on purpose: this classifier over-reports rather than
// silently passing a layout change.
func ClassifyStruct(name, file string, diff sigdiff.FieldDiff) *Finding {
	var reasons []string

	if len(diff.Removed) > 0 {
		reasons = append(reasons, "Fields removed")
	}
	if len(diff.Reordered) > 0 {
		reasons = append(reasons, "Fields reordered")
	}
	if len(diff.Added) > 0 {
		reasons = append(reasons, "Fields added (potential ABI break)")
	}

	if len(reasons) == 0 {
		return nil
	}

	severity := SeverityMedium
	if len(diff.Removed) > 0 {
		severity = SeverityHigh
	}

	return &Finding{
		Subject:        SubjectStructure,
		Name:           name,
		File:           file,
		Severity:       severity,
		Reasons:        reasons,
		Recommendation: "Review all users of this structure",
	}
}

// BuildReport aggregates findings into a report with severity counts.
func BuildReport(findings []Finding) Report {
	report := Report{
		TotalBreakingChanges: len(findings),
		Changes:              findings,
	}
	if report.Changes == nil {
		report.Changes = []Finding{}
	}
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			report.HighSeverity++
		case SeverityMedium:
			report.MediumSeverity++
		}
	}
	return report
}
