package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kapidiff/internal/analyzer"
	kerrors "kapidiff/internal/errors"
	"kapidiff/internal/sigdiff"
	"kapidiff/internal/subsystem"
)

const htmlPage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>API Changes Report</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; margin: 20px; color: #333; }
        h1 { color: #111; }
        h2 { color: #666; border-bottom: 2px solid #ddd; padding-bottom: 5px; }
        .summary { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        .stat { display: inline-block; margin: 10px 20px; }
        .added { color: #28a745; }
        .removed { color: #dc3545; }
        .modified { color: #ffc107; }
        table { border-collapse: collapse; width: 100%; margin: 20px 0; }
        th { background: #007bff; color: white; padding: 10px; text-align: left; }
        td { border: 1px solid #ddd; padding: 8px; vertical-align: top; word-break: break-word; }
        tr:nth-child(even) { background: #f9f9f9; }
        .change-type { padding: 3px 8px; border-radius: 3px; font-size: 0.9em; }
        .change-added { background: #d4edda; color: #155724; }
        .change-removed { background: #f8d7da; color: #721c24; }
        .change-modified { background: #fff3cd; color: #856404; }
        .code { background: #f4f4f4; padding: 10px; border-left: 3px solid #007bff; font-family: monospace; margin: 10px 0; overflow-x: auto; }
        .param-change { margin: 5px 0; padding: 5px; background: #fff; border-left: 2px solid #ffc107; }
        .severity-high { color: #dc3545; font-weight: 700; }
        .severity-medium { color: #e67e22; font-weight: 700; }
        .subsystem { margin: 30px 0; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
        .semantic-pattern { background: #e7f3ff; padding: 10px; margin: 10px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <h1>API Changes Report</h1>
    <p>Comparison between {{.OldVersion}} and {{.NewVersion}} &mdash; generated {{.GeneratedAt}}</p>

    <div class="summary">
        <h2>Summary</h2>
{{- range .SummaryRows}}
        <div class="stat">
            <strong>{{.Category}}</strong><br>
            <span class="added">+{{.Added}}</span> |
            <span class="removed">-{{.Removed}}</span> |
            <span class="modified">~{{.Modified}}</span>
        </div>
{{- end}}
        <div class="stat">
            <strong>ABI IMPACT</strong><br>
            <span class="severity-high">{{.ABIImpact.HighSeverity}} high</span> |
            <span class="severity-medium">{{.ABIImpact.MediumSeverity}} medium</span>
        </div>
    </div>

{{- if .Functions}}
    <h2>Function Changes</h2>
    <table>
        <tr><th>Function Name</th><th>Change Type</th><th>File</th><th>Details</th></tr>
{{- range .Functions}}
        <tr>
            <td><code>{{.Name}}</code></td>
            <td><span class="change-type change-{{.ChangeType}}">{{.ChangeType}}</span></td>
            <td>{{.File}}</td>
            <td>
{{- if eq .ChangeType "modified"}}
                <div class="code"><strong>Old:</strong> {{.OldSignature}}<br><strong>New:</strong> {{.NewSignature}}</div>
{{- range .ParameterChanges}}
                <div class="param-change">{{formatParamChange .}}</div>
{{- end}}
{{- if .ReturnTypeChanged}}
                <div class="param-change"><strong>Return Type:</strong> {{.OldReturnType}} &rarr; {{.NewReturnType}}</div>
{{- end}}
{{- end}}
            </td>
        </tr>
{{- end}}
    </table>
{{- end}}

{{- if .Structs}}
    <h2>Structure Changes</h2>
    <table>
        <tr><th>Structure Name</th><th>Change Type</th><th>File</th><th>Field Changes</th></tr>
{{- range .Structs}}
        <tr>
            <td><code>struct {{.Name}}</code></td>
            <td><span class="change-type change-{{.ChangeType}}">{{.ChangeType}}</span></td>
            <td>{{.File}}</td>
            <td>
{{- if .FieldChanges}}
{{- range .FieldChanges.Added}}
                <div class="param-change">+ {{.}}</div>
{{- end}}
{{- range .FieldChanges.Removed}}
                <div class="param-change">- {{.}}</div>
{{- end}}
{{- range .FieldChanges.Reordered}}
                <div class="param-change">~ Position {{.Position}}: {{.Old}} &rarr; {{.New}}</div>
{{- end}}
{{- end}}
            </td>
        </tr>
{{- end}}
    </table>
{{- end}}

{{- if .Macros}}
    <h2>Macro Changes</h2>
    <table>
        <tr><th>Macro Name</th><th>Change Type</th><th>File</th><th>Definition</th></tr>
{{- range .Macros}}
        <tr>
            <td><code>{{.Name}}</code></td>
            <td><span class="change-type change-{{.ChangeType}}">{{.ChangeType}}</span></td>
            <td>{{.File}}</td>
            <td>
{{- if eq .ChangeType "modified"}}
                <div class="code"><strong>Old:</strong> {{.OldDefinition}}<br><strong>New:</strong> {{.NewDefinition}}</div>
{{- end}}
            </td>
        </tr>
{{- end}}
    </table>
{{- end}}

{{- if .ABIImpact.Changes}}
    <h2>ABI Impact</h2>
    <table>
        <tr><th>Symbol</th><th>Kind</th><th>Severity</th><th>Reasons</th><th>Recommendation</th></tr>
{{- range .ABIImpact.Changes}}
        <tr>
            <td><code>{{.Name}}</code></td>
            <td>{{.Subject}}</td>
            <td><span class="severity-{{.Severity}}">{{.Severity}}</span></td>
            <td>{{join .Reasons "; "}}</td>
            <td>{{.Recommendation}}</td>
        </tr>
{{- end}}
    </table>
{{- end}}

{{- if .Subsystems}}
    <h2>Subsystem Analysis</h2>
{{- range .Subsystems}}
    <div class="subsystem">
        <h3>{{.Name}} Subsystem</h3>
        <p><strong>Changes:</strong> {{len .Changes.FunctionNames}} functions, {{len .Changes.StructNames}} structures</p>
{{- if .Changes.SemanticChanges}}
        <h4>Detected Patterns:</h4>
{{- range .Changes.SemanticChanges}}
        <div class="semantic-pattern">
            <strong>{{title .Pattern}}</strong><br>
            {{.Description}}<br>
            <em>Impact: {{.Impact}}</em>
        </div>
{{- end}}
{{- end}}
    </div>
{{- end}}
{{- end}}
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatParamChange": formatParamChange,
	"join":              strings.Join,
	"title":             patternTitle,
}).Parse(htmlPage))

// htmlData is the template input: the result plus pre-sorted views the
// template cannot build itself.
type htmlData struct {
	*analyzer.Result
	SummaryRows []summaryRow
	Subsystems  []subsystemView
}

type summaryRow struct {
	Category string
	analyzer.CategorySummary
}

type subsystemView struct {
	Name    string
	Changes subsystem.Changes
}

func (w *Writer) writeHTML(result *analyzer.Result, outputDir string) (string, error) {
	data := htmlData{Result: result}

	categories := make([]string, 0, len(result.Summary))
	for category := range result.Summary {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		data.SummaryRows = append(data.SummaryRows, summaryRow{
			Category:        strings.ToUpper(category),
			CategorySummary: result.Summary[category],
		})
	}

	names := make([]string, 0, len(result.Subsystems))
	for name := range result.Subsystems {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data.Subsystems = append(data.Subsystems, subsystemView{
			Name:    strings.ToUpper(name),
			Changes: result.Subsystems[name],
		})
	}

	path := filepath.Join(outputDir, "api-changes.html")
	f, err := os.Create(path)
	if err != nil {
		return "", kerrors.New(kerrors.ReportWriteFailed, "failed to create HTML report", err)
	}
	defer f.Close()

	if err := htmlTemplate.Execute(f, data); err != nil {
		return "", kerrors.New(kerrors.ReportWriteFailed, "failed to render HTML report", err)
	}
	return path, nil
}

// formatParamChange renders one parameter diff as a human line.
func formatParamChange(pc sigdiff.ParameterDiff) string {
	switch pc.Kind {
	case sigdiff.CountChanged:
		return fmt.Sprintf("Parameter count: %d → %d", pc.OldCount, pc.NewCount)
	case sigdiff.TypeChanged:
		return fmt.Sprintf("Param %d (%s): %s → %s", pc.Position, pc.Name, pc.OldType, pc.NewType)
	case sigdiff.NameChanged:
		return fmt.Sprintf("Param %d renamed: %s → %s", pc.Position, pc.OldName, pc.NewName)
	case sigdiff.Added:
		return fmt.Sprintf("Added param %d: %s", pc.Position, pc.Raw)
	case sigdiff.Removed:
		return fmt.Sprintf("Removed param %d: %s", pc.Position, pc.Raw)
	default:
		return string(pc.Kind)
	}
}

// patternTitle turns "widespread_parameter_addition" into
// "Widespread Parameter Addition".
func patternTitle(s string) string {
	words := strings.Split(s, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
