package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kapidiff/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to .kapidiff/config.json in the
current directory. Edit it to tune workers, report formats, subsystem
rules, and logging.`,
	Run: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}

	path := filepath.Join(cwd, ".kapidiff", "config.json")
	if _, err := os.Stat(path); err == nil && !initForce {
		fatal(fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	if err := config.DefaultConfig().Save(cwd); err != nil {
		fatal(err)
	}
	fmt.Printf("Configuration written: %s\n", path)
}
