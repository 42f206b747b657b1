package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kapidiff/internal/analyzer"
	kerrors "kapidiff/internal/errors"
	"kapidiff/internal/report"
)

var (
	reportInput     string
	reportOutputDir string
	reportFormats   []string
	reportCompress  bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Re-render reports from a previous analysis result",
	Long: `Re-render CSV, HTML, or compressed reports from the JSON result
document of a previous analyze run, without re-running the comparison.

Examples:
  kapidiff report --input=kapidiff-report/api-changes.json --format=html
  kapidiff report --input=api-changes.json --format=csv --format=html --output=out`,
	Run: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "Path to an api-changes.json result document (required)")
	reportCmd.Flags().StringVar(&reportOutputDir, "output", "", "Report output directory (default from config)")
	reportCmd.Flags().StringSliceVar(&reportFormats, "format", []string{"html"}, "Report formats: json, csv, html")
	reportCmd.Flags().BoolVar(&reportCompress, "compress", false, "Also write a zstd-compressed JSON export")

	reportCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	if reportOutputDir != "" {
		cfg.Report.OutputDir = reportOutputDir
	}
	logger := newLogger(cfg)

	data, err := os.ReadFile(reportInput)
	if err != nil {
		fatal(kerrors.New(kerrors.ReportWriteFailed, fmt.Sprintf("failed to read result document %q", reportInput), err))
	}
	var result analyzer.Result
	if err := json.Unmarshal(data, &result); err != nil {
		fatal(kerrors.New(kerrors.ReportWriteFailed, "result document is not valid JSON", err))
	}

	writer := report.NewWriter(logger)
	written, err := writer.Write(&result, report.Options{
		OutputDir: cfg.Report.OutputDir,
		Formats:   toReportFormats(reportFormats),
		Compress:  reportCompress,
	})
	if err != nil {
		fatal(err)
	}

	for _, path := range written {
		fmt.Printf("Report written: %s\n", path)
	}
}
