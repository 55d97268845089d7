package subformat

import (
	"strings"

	"dualsub/internal/cue"
)

// parseText turns blank-line separated blocks into cues with synthetic
// one-second slots, since plain text carries no timing.
func parseText(text string, language string) (cue.Document, error) {
	r := newLineReader(text)
	var cues []cue.Cue
	for {
		r.skipBlank()
		lines := r.textLines()
		if len(lines) == 0 {
			break
		}
		n := len(cues) + 1
		start := cue.Timestamp(n-1) * cue.Second
		c, err := cue.New(n, start, start.Add(cue.Second), lines...)
		if err != nil {
			return cue.Document{}, &ParseError{Format: cue.FormatText, Reason: err.Error(), Err: err}
		}
		cues = append(cues, c)
	}
	return cue.NewDocument(cues, cue.FormatText, language)
}

func writeText(doc cue.Document) string {
	blocks := make([]string, 0, doc.Len())
	for i := 0; i < doc.Len(); i++ {
		if text := doc.At(i).Text(); text != "" {
			blocks = append(blocks, text)
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
