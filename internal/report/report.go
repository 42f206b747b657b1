// Package report renders an analysis result into its output formats:
// the canonical JSON document, a flat CSV for spreadsheets, and a
// standalone HTML page. An optional zstd-compressed copy of the JSON
// accompanies the plain one for archival.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"kapidiff/internal/analyzer"
	kerrors "kapidiff/internal/errors"
	"kapidiff/internal/logging"
)

// Format names one renderer.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// Options configures one write.
type Options struct {
	OutputDir string
	Formats   []Format

	// Compress adds a zstd-compressed copy next to the JSON document.
	Compress bool
}

// Writer renders results into an output directory.
type Writer struct {
	logger *logging.Logger
}

// NewWriter creates a report writer.
func NewWriter(logger *logging.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write renders the result in every requested format and returns the
// paths written. The output directory is created if needed.
func (w *Writer) Write(result *analyzer.Result, opts Options) ([]string, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []Format{FormatJSON}
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, kerrors.New(kerrors.ReportWriteFailed, "failed to create output directory", err)
	}

	var written []string
	for _, format := range opts.Formats {
		var path string
		var err error
		switch format {
		case FormatJSON:
			path, err = w.writeJSON(result, opts)
		case FormatCSV:
			path, err = w.writeCSV(result, opts.OutputDir)
		case FormatHTML:
			path, err = w.writeHTML(result, opts.OutputDir)
		default:
			err = fmt.Errorf("unknown report format %q", format)
		}
		if err != nil {
			return written, err
		}
		written = append(written, path)

		w.logger.Debug("report written", map[string]interface{}{
			"format": string(format),
			"path":   path,
		})
	}

	return written, nil
}

func (w *Writer) writeJSON(result *analyzer.Result, opts Options) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", kerrors.New(kerrors.InternalError, "failed to encode result", err)
	}
	data = append(data, '\n')

	path := filepath.Join(opts.OutputDir, "api-changes.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", kerrors.New(kerrors.ReportWriteFailed, "failed to write JSON report", err)
	}

	if opts.Compress {
		if err := writeCompressed(path+".zst", data); err != nil {
			return "", err
		}
	}
	return path, nil
}

// writeCompressed writes a zstd frame of data to path.
func writeCompressed(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return kerrors.New(kerrors.ReportWriteFailed, "failed to create compressed report", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return kerrors.New(kerrors.InternalError, "failed to initialize compressor", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return kerrors.New(kerrors.ReportWriteFailed, "failed to write compressed report", err)
	}
	if err := enc.Close(); err != nil {
		return kerrors.New(kerrors.ReportWriteFailed, "failed to finalize compressed report", err)
	}
	return nil
}
