package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"kapidiff/internal/analyzer"
	kerrors "kapidiff/internal/errors"
)

// csvHeader is the fixed column set; one row per change record across
// all symbol kinds. Fields that do not apply to a kind stay empty.
var csvHeader = []string{
	"symbol", "category", "change_type", "file",
	"old_signature", "new_signature",
	"return_type_changed", "parameter_changes",
	"fields_added", "fields_removed", "fields_reordered",
}

func (w *Writer) writeCSV(result *analyzer.Result, outputDir string) (string, error) {
	path := filepath.Join(outputDir, "api-changes.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", kerrors.New(kerrors.ReportWriteFailed, "failed to create CSV report", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write CSV header", err)
	}

	for _, fc := range result.Functions {
		row := []string{
			fc.Name, "function", string(fc.ChangeType), fc.File,
			orHint(fc.OldSignature, fc.Signature), orHint(fc.NewSignature, fc.Signature),
			strconv.FormatBool(fc.ReturnTypeChanged),
			strconv.Itoa(len(fc.ParameterChanges)),
			"", "", "",
		}
		if err := cw.Write(row); err != nil {
			return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write CSV row", err)
		}
	}

	for _, sc := range result.Structs {
		var added, removed, reordered string
		if sc.FieldChanges != nil {
			added = strconv.Itoa(len(sc.FieldChanges.Added))
			removed = strconv.Itoa(len(sc.FieldChanges.Removed))
			reordered = strconv.Itoa(len(sc.FieldChanges.Reordered))
		}
		row := []string{
			sc.Name, "struct", string(sc.ChangeType), sc.File,
			"", "", "", "", added, removed, reordered,
		}
		if err := cw.Write(row); err != nil {
			return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write CSV row", err)
		}
	}

	for _, mc := range result.Macros {
		row := []string{
			mc.Name, "macro", string(mc.ChangeType), mc.File,
			mc.OldDefinition, mc.NewDefinition, "", "", "", "", "",
		}
		if err := cw.Write(row); err != nil {
			return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write CSV row", err)
		}
	}

	for _, tc := range result.Typedefs {
		if err := cw.Write(typeRow(tc, "typedef")); err != nil {
			return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write CSV row", err)
		}
	}
	for _, tc := range result.Enums {
		if err := cw.Write(typeRow(tc, "enum")); err != nil {
			return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write CSV row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", kerrors.New(kerrors.ReportWriteFailed, "failed to flush CSV report", err)
	}
	return path, nil
}

func typeRow(tc analyzer.TypeChange, category string) []string {
	return []string{tc.Name, category, string(tc.ChangeType), tc.File, "", "", "", "", "", "", ""}
}

// orHint falls back to the ctags signature hint for added/removed
// records, which carry no old/new pair.
func orHint(signature, hint string) string {
	if signature != "" {
		return signature
	}
	return hint
}
