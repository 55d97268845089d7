// Package transcript turns speech-to-text segments into a cue document.
package transcript

import (
	"fmt"
	"strings"

	"dualsub/internal/cue"
)

// Segment is one timed span of recognized speech, in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Stats reports what Build kept and why it dropped the rest.
type Stats struct {
	Kept              int
	DroppedEmpty      int
	DroppedNonForward int
}

// Dropped is the total number of discarded segments.
func (s Stats) Dropped() int { return s.DroppedEmpty + s.DroppedNonForward }

// Build converts segments, in order, into a document numbered from 1. Segments
// with no text, or whose rounded end is not after their start, are dropped.
// Multi-line segment text keeps its line breaks. Negative starts are clamped
// to zero.
func Build(segments []Segment, format cue.Format, language string) (cue.Document, Stats, error) {
	var stats Stats
	cues := make([]cue.Cue, 0, len(segments))
	for _, seg := range segments {
		lines := splitLines(seg.Text)
		if len(lines) == 0 {
			stats.DroppedEmpty++
			continue
		}
		start := max(cue.FromSeconds(seg.Start), 0)
		end := cue.FromSeconds(seg.End)
		if !start.Before(end) {
			stats.DroppedNonForward++
			continue
		}
		c, err := cue.New(len(cues)+1, start, end, lines...)
		if err != nil {
			return cue.Document{}, stats, fmt.Errorf("transcript segment %d: %w", len(cues)+stats.Dropped()+1, err)
		}
		cues = append(cues, c)
	}
	stats.Kept = len(cues)
	if format == "" {
		format = cue.FormatSRT
	}
	doc, err := cue.NewDocument(cues, format, language)
	if err != nil {
		return cue.Document{}, stats, err
	}
	return doc, stats, nil
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
