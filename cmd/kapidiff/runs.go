package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kapidiff/internal/history"
)

var (
	runsLimit  int
	runsFormat string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past analysis runs",
	Long: `List past analysis runs recorded in the history database,
newest first.

Examples:
  kapidiff runs
  kapidiff runs --limit=5
  kapidiff runs --format=json`,
	Run: runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show (0 = all)")
	runsCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (json, human)")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	store, err := history.Open(cwd, logger)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	runs, err := store.List(runsLimit)
	if err != nil {
		fatal(err)
	}

	if runsFormat == "json" {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			fatal(err)
		}
		fmt.Println(string(data))
		return
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	fmt.Printf("%-36s  %-12s  %-12s  %8s  %8s  %s\n",
		"RUN ID", "OLD", "NEW", "CHANGES", "BREAKING", "WHEN")
	for _, r := range runs {
		total := r.FunctionChanges + r.StructChanges + r.MacroChanges
		fmt.Printf("%-36s  %-12s  %-12s  %8d  %8d  %s\n",
			r.ID, r.OldVersion, r.NewVersion, total, r.TotalBreakingChanges, r.CreatedAt)
	}
}
