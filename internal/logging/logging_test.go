package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with default output", func(t *testing.T) {
		logger := New(Config{Level: InfoLevel})
		if logger == nil {
			t.Fatal("New returned nil")
		}
	})

	t.Run("with custom output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := New(Config{Level: InfoLevel, Output: buf})
		if logger.writer != buf {
			t.Error("logger should use the provided writer")
		}
	})
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		configLvl Level
		log       func(*Logger)
		shouldLog bool
	}{
		{"debug logs debug", DebugLevel, func(l *Logger) { l.Debug("m", nil) }, true},
		{"info drops debug", InfoLevel, func(l *Logger) { l.Debug("m", nil) }, false},
		{"info logs warn", InfoLevel, func(l *Logger) { l.Warn("m", nil) }, true},
		{"error drops info", ErrorLevel, func(l *Logger) { l.Info("m", nil) }, false},
		{"error logs error", ErrorLevel, func(l *Logger) { l.Error("m", nil) }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(Config{Format: HumanFormat, Level: tc.configLvl, Output: buf})
			tc.log(logger)
			if got := buf.Len() > 0; got != tc.shouldLog {
				t.Errorf("logged = %v, want %v", got, tc.shouldLog)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Format: JSONFormat, Level: InfoLevel, Output: buf})

	logger.Info("analysis complete", map[string]interface{}{"symbols": 42})

	var e struct {
		Level   string                 `json:"level"`
		Message string                 `json:"message"`
		Fields  map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if e.Level != "info" || e.Message != "analysis complete" {
		t.Errorf("entry = %+v", e)
	}
	if e.Fields["symbols"] != float64(42) {
		t.Errorf("fields = %v", e.Fields)
	}
}

func TestHumanFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(Config{Format: HumanFormat, Level: InfoLevel, Output: buf})

	logger.Warn("scan window exhausted", map[string]interface{}{"file": "dma.h"})

	out := buf.String()
	if !strings.Contains(out, "[warn]") || !strings.Contains(out, "scan window exhausted") {
		t.Errorf("unexpected human output: %q", out)
	}
	if !strings.Contains(out, "file=dma.h") {
		t.Errorf("fields missing from human output: %q", out)
	}
}
