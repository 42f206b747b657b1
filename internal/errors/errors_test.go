package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorFormat(t *testing.T) {
	err := New(TagsFileMissing, "tags file not found", nil)

	msg := err.Error()
	if !strings.Contains(msg, "TAGS_FILE_MISSING") || !strings.Contains(msg, "tags file not found") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestErrorWithCause(t *testing.T) {
	cause := stderrors.New("open failed")
	err := New(SourceRootMissing, "old tree missing", cause)

	if !strings.Contains(err.Error(), "open failed") {
		t.Errorf("cause missing from message: %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Error("Unwrap chain broken")
	}
}

func TestSuggestedFixes(t *testing.T) {
	err := New(TagsFileMissing, "tags file not found", nil)
	if len(err.SuggestedFixes) == 0 {
		t.Error("TagsFileMissing should carry a suggested fix")
	}

	err = New(InternalError, "boom", nil)
	if len(err.SuggestedFixes) != 0 {
		t.Error("InternalError should carry no canned fixes")
	}
}
