package subformat

import (
	"strconv"
	"strings"

	"dualsub/internal/cue"
)

func parseSRT(text string, language string) (cue.Document, error) {
	r := newLineReader(text)
	var cues []cue.Cue
	prev := 0
	for {
		r.skipBlank()
		line, lineNo, ok := r.next()
		if !ok {
			break
		}
		index, ok := positiveInt(line)
		if !ok {
			return cue.Document{}, parseErrorf(cue.FormatSRT, lineNo, "invalid cue index %q", strings.TrimSpace(line))
		}
		if index <= prev {
			return cue.Document{}, parseErrorf(cue.FormatSRT, lineNo, "cue index %d out of order (previous %d)", index, prev)
		}
		timing, timingNo, ok := r.next()
		if !ok || isBlank(timing) {
			return cue.Document{}, parseErrorf(cue.FormatSRT, lineNo, "truncated cue block %d: missing timing line", index)
		}
		start, end, err := parseTiming(timing, ',')
		if err != nil {
			return cue.Document{}, &ParseError{Format: cue.FormatSRT, Line: timingNo, Reason: err.Error(), Err: err}
		}
		c, err := cue.New(index, start, end, r.textLines()...)
		if err != nil {
			return cue.Document{}, &ParseError{Format: cue.FormatSRT, Line: timingNo, Reason: err.Error(), Err: err}
		}
		cues = append(cues, c)
		prev = index
	}
	return cue.NewDocument(cues, cue.FormatSRT, language)
}

func writeSRT(doc cue.Document) string {
	var b strings.Builder
	for i := 0; i < doc.Len(); i++ {
		c := doc.At(i)
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(c.Index()))
		b.WriteByte('\n')
		b.WriteString(formatTiming(c, ','))
		b.WriteByte('\n')
		for _, line := range c.Lines() {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
