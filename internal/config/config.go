// Package config loads kapidiff configuration from .kapidiff/config.json.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config is the complete kapidiff configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Analysis AnalysisConfig `json:"analysis" mapstructure:"analysis"`
	Filter   FilterConfig   `json:"filter" mapstructure:"filter"`
	Report   ReportConfig   `json:"report" mapstructure:"report"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// AnalysisConfig tunes the comparison engine.
type AnalysisConfig struct {
	// Workers bounds the symbol-comparison worker pool. Zero means one
	// worker per CPU.
	Workers int `json:"workers" mapstructure:"workers"`
	// FileCacheSize is the per-tree LRU capacity, in files.
	FileCacheSize int `json:"fileCacheSize" mapstructure:"fileCacheSize"`
	// InlineHeuristic enables the inline-function semantic scan.
	InlineHeuristic bool `json:"inlineHeuristic" mapstructure:"inlineHeuristic"`
	// Subsystems enables subsystem bucketing of changes.
	Subsystems bool `json:"subsystems" mapstructure:"subsystems"`
	// SubsystemRules points at an optional YAML rules file overriding
	// the built-in subsystem patterns.
	SubsystemRules string `json:"subsystemRules" mapstructure:"subsystemRules"`
}

// FilterConfig restricts which symbols are analyzed.
type FilterConfig struct {
	// PublicOnly keeps only symbols defined in include/**/*.h.
	PublicOnly bool `json:"publicOnly" mapstructure:"publicOnly"`
}

// ReportConfig controls report rendering.
type ReportConfig struct {
	// OutputDir receives the rendered reports.
	OutputDir string `json:"outputDir" mapstructure:"outputDir"`
	// Formats lists the renderers to run: json, csv, html.
	Formats []string `json:"formats" mapstructure:"formats"`
	// Compress additionally writes a zstd-compressed JSON export.
	Compress bool `json:"compress" mapstructure:"compress"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Analysis: AnalysisConfig{
			Workers:         runtime.NumCPU(),
			FileCacheSize:   2048,
			InlineHeuristic: true,
			Subsystems:      true,
		},
		Filter: FilterConfig{
			PublicOnly: true,
		},
		Report: ReportConfig{
			OutputDir: "kapidiff-report",
			Formats:   []string{"json"},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <workDir>/.kapidiff/config.json,
// falling back to defaults when the file does not exist.
func Load(workDir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(workDir, ".kapidiff"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to <workDir>/.kapidiff/config.json.
func (c *Config) Save(workDir string) error {
	dir := filepath.Join(workDir, ".kapidiff")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}
