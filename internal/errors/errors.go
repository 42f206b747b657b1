// Package errors defines the stable error codes kapidiff reports.
//
// Only orchestration-level conditions become errors. Per-symbol
// extraction problems degrade to empty structured values instead and
// never surface here.
package errors

import (
	"fmt"
)

// ErrorCode identifies a failure mode with a stable string.
type ErrorCode string

const (
	// TagsFileMissing indicates a ctags JSON file was not found.
	TagsFileMissing ErrorCode = "TAGS_FILE_MISSING"
	// TagsFileMalformed indicates a ctags file could not be read at all.
	TagsFileMalformed ErrorCode = "TAGS_FILE_MALFORMED"
	// SourceRootMissing indicates a source tree root does not exist.
	SourceRootMissing ErrorCode = "SOURCE_ROOT_MISSING"
	// ReportWriteFailed indicates a rendered report could not be written.
	ReportWriteFailed ErrorCode = "REPORT_WRITE_FAILED"
	// HistoryUnavailable indicates the run-history database failed to open.
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// RulesInvalid indicates a subsystem rules file failed to parse.
	RulesInvalid ErrorCode = "RULES_INVALID"
	// InternalError indicates an unexpected failure.
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction is a suggested remedy attached to an error.
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// Error carries a code, message, and optional suggestions.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		SuggestedFixes: suggestedFixes(code),
		cause:          cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

var errorActions = map[ErrorCode][]FixAction{
	TagsFileMissing: {
		{
			Command:     "ctags -R -o tags.json --output-format=json --fields=+nS --languages=C --kinds-C=+p <tree>/include",
			Description: "Generate the tag index for the source tree",
		},
	},
	SourceRootMissing: {
		{
			Description: "Check that both snapshot directories exist and are readable",
		},
	},
	HistoryUnavailable: {
		{
			Command:     "rm .kapidiff/history.db",
			Description: "Remove a corrupted history database; it will be recreated",
		},
	},
}

func suggestedFixes(code ErrorCode) []FixAction {
	return errorActions[code]
}
