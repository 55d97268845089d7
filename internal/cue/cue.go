package cue

import (
	"fmt"
	"slices"
	"strings"
)

// TimingInvariantViolation reports a cue or document that breaks the timing
// or index rules.
type TimingInvariantViolation struct {
	Index  int
	Reason string
}

func (e *TimingInvariantViolation) Error() string {
	return fmt.Sprintf("cue %d: %s", e.Index, e.Reason)
}

// Cue is one timed text unit. Values are immutable after New.
type Cue struct {
	index int
	start Timestamp
	end   Timestamp
	lines []string
}

// New validates and builds a cue.
func New(index int, start, end Timestamp, lines ...string) (Cue, error) {
	if index <= 0 {
		return Cue{}, &TimingInvariantViolation{Index: index, Reason: "index must be positive"}
	}
	if start < 0 {
		return Cue{}, &TimingInvariantViolation{Index: index, Reason: fmt.Sprintf("start %s must not be negative", start)}
	}
	if !start.Before(end) {
		return Cue{}, &TimingInvariantViolation{
			Index:  index,
			Reason: fmt.Sprintf("start %s must be before end %s", start, end),
		}
	}
	return Cue{index: index, start: start, end: end, lines: slices.Clone(lines)}, nil
}

// MustNew is New for fixtures; it panics on invalid input.
func MustNew(index int, start, end Timestamp, lines ...string) Cue {
	c, err := New(index, start, end, lines...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cue) Index() int       { return c.index }
func (c Cue) Start() Timestamp { return c.start }
func (c Cue) End() Timestamp   { return c.end }

// Lines returns a copy of the text lines.
func (c Cue) Lines() []string { return slices.Clone(c.lines) }

// LineCount returns the number of text lines.
func (c Cue) LineCount() int { return len(c.lines) }

// Text joins the lines with newlines.
func (c Cue) Text() string { return strings.Join(c.lines, "\n") }

// WithLines returns a copy of the cue carrying different text.
func (c Cue) WithLines(lines ...string) Cue {
	c.lines = slices.Clone(lines)
	return c
}

// SameTiming reports whether both cues share index, start and end.
func (c Cue) SameTiming(other Cue) bool {
	return c.index == other.index && c.start == other.start && c.end == other.end
}

// Equal compares cues structurally.
func (c Cue) Equal(other Cue) bool {
	return c.SameTiming(other) && slices.Equal(c.lines, other.lines)
}

func (c Cue) String() string {
	return fmt.Sprintf("#%d %s --> %s %q", c.index, c.start, c.end, c.Text())
}
