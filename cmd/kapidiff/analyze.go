package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kapidiff/internal/analyzer"
	"kapidiff/internal/config"
	"kapidiff/internal/ctags"
	kerrors "kapidiff/internal/errors"
	"kapidiff/internal/history"
	"kapidiff/internal/logging"
	"kapidiff/internal/report"
	"kapidiff/internal/source"
	"kapidiff/internal/subsystem"
)

var (
	analyzeOldTree       string
	analyzeNewTree       string
	analyzeOldTags       string
	analyzeNewTags       string
	analyzeOldVersion    string
	analyzeNewVersion    string
	analyzeOutputDir     string
	analyzeFormats       []string
	analyzeCompress      bool
	analyzeWorkers       int
	analyzePublicOnly    bool
	analyzeNoHistory     bool
	analyzeFailOnBreak   bool
	analyzeRulesFile     string
	analyzeNoSubsystems  bool
	analyzeNoInlineCheck bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare two source snapshots and report API/ABI changes",
	Long: `Compare two snapshots of a C source tree using pre-generated
Universal Ctags indexes.

Generate the indexes first:
  ctags -R -o old-tags.json --output-format=json --fields=+nS \
        --languages=C --kinds-C=+p <old-tree>/include
  ctags -R -o new-tags.json --output-format=json --fields=+nS \
        --languages=C --kinds-C=+p <new-tree>/include

Examples:
  kapidiff analyze --old-tree=linux-6.1 --new-tree=linux-6.2 \
      --old-tags=old-tags.json --new-tags=new-tags.json
  kapidiff analyze ... --format=json --format=html --compress
  kapidiff analyze ... --fail-on-breaking   # exit 1 on high-severity changes`,
	Run: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOldTree, "old-tree", "", "Root of the old source tree (required)")
	analyzeCmd.Flags().StringVar(&analyzeNewTree, "new-tree", "", "Root of the new source tree (required)")
	analyzeCmd.Flags().StringVar(&analyzeOldTags, "old-tags", "", "Ctags JSON index for the old tree (required)")
	analyzeCmd.Flags().StringVar(&analyzeNewTags, "new-tags", "", "Ctags JSON index for the new tree (required)")
	analyzeCmd.Flags().StringVar(&analyzeOldVersion, "old-version", "", "Label for the old version (defaults to tree name)")
	analyzeCmd.Flags().StringVar(&analyzeNewVersion, "new-version", "", "Label for the new version (defaults to tree name)")
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output", "", "Report output directory (default from config)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFormats, "format", nil, "Report formats: json, csv, html (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeCompress, "compress", false, "Also write a zstd-compressed JSON export")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Comparison worker count (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzePublicOnly, "public-only", true, "Restrict analysis to include/**/*.h symbols")
	analyzeCmd.Flags().BoolVar(&analyzeNoHistory, "no-history", false, "Skip recording the run in the history database")
	analyzeCmd.Flags().BoolVar(&analyzeFailOnBreak, "fail-on-breaking", false, "Exit with code 1 when high-severity ABI breaks are found")
	analyzeCmd.Flags().StringVar(&analyzeRulesFile, "subsystem-rules", "", "YAML file overriding the built-in subsystem rules")
	analyzeCmd.Flags().BoolVar(&analyzeNoSubsystems, "no-subsystems", false, "Disable subsystem bucketing")
	analyzeCmd.Flags().BoolVar(&analyzeNoInlineCheck, "no-inline-check", false, "Disable the inline function heuristic")

	analyzeCmd.MarkFlagRequired("old-tree")
	analyzeCmd.MarkFlagRequired("new-tree")
	analyzeCmd.MarkFlagRequired("old-tags")
	analyzeCmd.MarkFlagRequired("new-tags")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	applyAnalyzeFlags(cmd, cfg)
	logger := newLogger(cfg)
	ctx := newContext()

	for _, tree := range []string{analyzeOldTree, analyzeNewTree} {
		if info, err := os.Stat(tree); err != nil || !info.IsDir() {
			fatal(kerrors.New(kerrors.SourceRootMissing, fmt.Sprintf("source tree %q not found", tree), err))
		}
	}

	filter := ctags.Filter{PublicOnly: cfg.Filter.PublicOnly}
	oldTags := mustParseTags(analyzeOldTags, filter, logger)
	newTags := mustParseTags(analyzeNewTags, filter, logger)

	oldTree, err := source.NewCache(analyzeOldTree, cfg.Analysis.FileCacheSize)
	if err != nil {
		fatal(kerrors.New(kerrors.SourceRootMissing, "failed to open old source tree", err))
	}
	newTree, err := source.NewCache(analyzeNewTree, cfg.Analysis.FileCacheSize)
	if err != nil {
		fatal(kerrors.New(kerrors.SourceRootMissing, "failed to open new source tree", err))
	}

	opts := analyzer.Options{
		OldVersion:      versionLabel(analyzeOldVersion, analyzeOldTree),
		NewVersion:      versionLabel(analyzeNewVersion, analyzeNewTree),
		Workers:         cfg.Analysis.Workers,
		InlineHeuristic: cfg.Analysis.InlineHeuristic,
	}
	if cfg.Analysis.Subsystems {
		opts.Subsystems = mustBuildClassifier(cfg.Analysis.SubsystemRules)
	}

	result, err := analyzer.New(oldTags, newTags, oldTree, newTree, opts, logger).Run(ctx)
	if err != nil {
		fatal(err)
	}

	writer := report.NewWriter(logger)
	written, err := writer.Write(result, report.Options{
		OutputDir: cfg.Report.OutputDir,
		Formats:   toReportFormats(cfg.Report.Formats),
		Compress:  cfg.Report.Compress,
	})
	if err != nil {
		fatal(err)
	}

	if !analyzeNoHistory {
		recordRun(result, logger)
	}

	printSummary(result, written)

	if analyzeFailOnBreak && result.ABIImpact.HighSeverity > 0 {
		os.Exit(1)
	}
}

// applyAnalyzeFlags overlays explicitly-set flags onto the config.
func applyAnalyzeFlags(cmd *cobra.Command, cfg *config.Config) {
	if analyzeOutputDir != "" {
		cfg.Report.OutputDir = analyzeOutputDir
	}
	if len(analyzeFormats) > 0 {
		cfg.Report.Formats = analyzeFormats
	}
	if cmd.Flags().Changed("compress") {
		cfg.Report.Compress = analyzeCompress
	}
	if analyzeWorkers > 0 {
		cfg.Analysis.Workers = analyzeWorkers
	}
	if cmd.Flags().Changed("public-only") {
		cfg.Filter.PublicOnly = analyzePublicOnly
	}
	if analyzeRulesFile != "" {
		cfg.Analysis.SubsystemRules = analyzeRulesFile
	}
	if analyzeNoSubsystems {
		cfg.Analysis.Subsystems = false
	}
	if analyzeNoInlineCheck {
		cfg.Analysis.InlineHeuristic = false
	}
}

func mustParseTags(path string, filter ctags.Filter, logger *logging.Logger) *ctags.SymbolTable {
	if _, err := os.Stat(path); err != nil {
		fatal(kerrors.New(kerrors.TagsFileMissing, fmt.Sprintf("tags file %q not found", path), err))
	}
	table, err := ctags.ParseFile(path, filter)
	if err != nil {
		fatal(kerrors.New(kerrors.TagsFileMalformed, fmt.Sprintf("failed to parse tags file %q", path), err))
	}
	if table.SkippedLines > 0 {
		logger.Warn("skipped malformed tag lines", map[string]interface{}{
			"path":    path,
			"skipped": table.SkippedLines,
		})
	}
	return table
}

func mustBuildClassifier(rulesFile string) *subsystem.Classifier {
	if rulesFile == "" {
		return subsystem.NewClassifier(nil)
	}
	rules, err := subsystem.LoadRules(rulesFile)
	if err != nil {
		fatal(kerrors.New(kerrors.RulesInvalid, "failed to load subsystem rules", err))
	}
	return subsystem.NewClassifier(rules)
}

func recordRun(result *analyzer.Result, logger *logging.Logger) {
	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	store, err := history.Open(cwd, logger)
	if err != nil {
		// History is an audit convenience; a broken database must not
		// discard a completed analysis.
		logger.Warn("history unavailable, run not recorded", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer store.Close()

	err = store.Record(history.Run{
		ID:                   result.RunID,
		OldVersion:           result.OldVersion,
		NewVersion:           result.NewVersion,
		GeneratedAt:          result.GeneratedAt,
		DurationMs:           result.DurationMs,
		FunctionChanges:      len(result.Functions),
		StructChanges:        len(result.Structs),
		MacroChanges:         len(result.Macros),
		TotalBreakingChanges: result.ABIImpact.TotalBreakingChanges,
		HighSeverity:         result.ABIImpact.HighSeverity,
	})
	if err != nil {
		logger.Warn("failed to record run", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func printSummary(result *analyzer.Result, written []string) {
	fmt.Printf("Compared %s -> %s (run %s)\n", result.OldVersion, result.NewVersion, result.RunID)
	for _, category := range []string{"functions", "structs", "macros", "typedefs", "enums"} {
		s := result.Summary[category]
		if s.TotalChanges == 0 {
			continue
		}
		fmt.Printf("  %-10s +%d -%d ~%d\n", category, s.Added, s.Removed, s.Modified)
	}
	fmt.Printf("ABI impact: %d breaking (%d high, %d medium)\n",
		result.ABIImpact.TotalBreakingChanges,
		result.ABIImpact.HighSeverity,
		result.ABIImpact.MediumSeverity)
	for _, path := range written {
		fmt.Printf("Report written: %s\n", path)
	}
}

func versionLabel(explicit, tree string) string {
	if explicit != "" {
		return explicit
	}
	return tree
}

func toReportFormats(names []string) []report.Format {
	formats := make([]report.Format, 0, len(names))
	for _, name := range names {
		formats = append(formats, report.Format(name))
	}
	return formats
}
