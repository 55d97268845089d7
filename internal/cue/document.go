package cue

import (
	"fmt"
	"slices"
	"strings"
)

// Format identifies an external subtitle text format.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatText Format = "txt"
)

// Formats lists supported formats in their canonical order.
var Formats = []Format{FormatSRT, FormatVTT, FormatText}

// ParseFormat resolves a format name, accepting a leading dot.
func ParseFormat(name string) (Format, error) {
	normalized := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")))
	switch normalized {
	case FormatSRT, FormatVTT, FormatText:
		return normalized, nil
	case "webvtt":
		return FormatVTT, nil
	case "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", name)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// Document is an ordered, immutable list of cues with format and language tags.
type Document struct {
	cues     []Cue
	format   Format
	language string
}

// NewDocument validates index ordering and builds a document.
func NewDocument(cues []Cue, format Format, language string) (Document, error) {
	prev := 0
	for _, c := range cues {
		if c.index <= 0 {
			return Document{}, &TimingInvariantViolation{Index: c.index, Reason: "index must be positive"}
		}
		if c.index == prev {
			return Document{}, &TimingInvariantViolation{Index: c.index, Reason: "duplicate index"}
		}
		if c.index < prev {
			return Document{}, &TimingInvariantViolation{
				Index:  c.index,
				Reason: fmt.Sprintf("index must increase (previous %d)", prev),
			}
		}
		if !c.start.Before(c.end) {
			return Document{}, &TimingInvariantViolation{Index: c.index, Reason: "start must be before end"}
		}
		prev = c.index
	}
	return Document{cues: slices.Clone(cues), format: format, language: strings.TrimSpace(language)}, nil
}

// Len returns the number of cues.
func (d Document) Len() int { return len(d.cues) }

// At returns the cue at position i.
func (d Document) At(i int) Cue { return d.cues[i] }

// Cues returns a copy of the cue list.
func (d Document) Cues() []Cue { return slices.Clone(d.cues) }

func (d Document) Format() Format   { return d.format }
func (d Document) Language() string { return d.language }

// WithFormat returns a copy tagged with another format.
func (d Document) WithFormat(f Format) Document {
	d.cues = slices.Clone(d.cues)
	d.format = f
	return d
}

// WithLanguage returns a copy tagged with another language.
func (d Document) WithLanguage(lang string) Document {
	d.cues = slices.Clone(d.cues)
	d.language = strings.TrimSpace(lang)
	return d
}

// Texts returns each cue's joined text in order.
func (d Document) Texts() []string {
	out := make([]string, len(d.cues))
	for i, c := range d.cues {
		out[i] = c.Text()
	}
	return out
}

// Span returns the earliest start and latest end across all cues.
func (d Document) Span() (Timestamp, Timestamp) {
	if len(d.cues) == 0 {
		return 0, 0
	}
	first, last := d.cues[0].start, d.cues[0].end
	for _, c := range d.cues[1:] {
		if c.start.Before(first) {
			first = c.start
		}
		if last.Before(c.end) {
			last = c.end
		}
	}
	return first, last
}

// Equal compares documents structurally, tags included.
func (d Document) Equal(other Document) bool {
	if d.format != other.format || d.language != other.language {
		return false
	}
	return slices.EqualFunc(d.cues, other.cues, Cue.Equal)
}
