package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"kapidiff/internal/config"
	"kapidiff/internal/logging"
	"kapidiff/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "kapidiff",
	Short: "kapidiff - C API/ABI change analyzer",
	Long: `kapidiff compares two snapshots of a C source tree (typically two
kernel versions) using their Universal Ctags indexes and reports
function signature changes, structure layout changes, macro changes,
and the ABI impact of each.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("kapidiff version {{.Version}}\n")
}

// newContext returns a context cancelled on SIGINT/SIGTERM.
func newContext() context.Context {
	ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx
}

// newLogger builds a logger from the loaded configuration.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.Level(cfg.Logging.Level),
	})
}

// mustLoadConfig loads the configuration or exits.
func mustLoadConfig() *config.Config {
	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fatal(err)
	}
	return cfg
}

func fatal(err error) {
	os.Stderr.WriteString("Error: " + err.Error() + "\n")
	os.Exit(1)
}
