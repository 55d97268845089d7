package subformat

import (
	"errors"
	"fmt"

	"dualsub/internal/cue"
)

// ErrLossyFormat marks a format that cannot reproduce a document exactly.
var ErrLossyFormat = errors.New("format drops timing")

// ParseError locates malformed input.
type ParseError struct {
	Format cue.Format
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %s", e.Format, e.Line, e.Reason)
	}
	return fmt.Sprintf("parse %s: %s", e.Format, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(format cue.Format, line int, reason string, args ...any) *ParseError {
	return &ParseError{Format: format, Line: line, Reason: fmt.Sprintf(reason, args...)}
}
