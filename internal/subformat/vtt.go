package subformat

import (
	"strconv"
	"strings"

	"dualsub/internal/cue"
)

const vttHeader = "WEBVTT"

func isVTTHeader(line string) bool {
	if !strings.HasPrefix(line, vttHeader) {
		return false
	}
	rest := line[len(vttHeader):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// isVTTMetadataBlock matches blocks that carry no cue: comments, style sheets
// and region definitions.
func isVTTMetadataBlock(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "STYLE" || trimmed == "REGION" || trimmed == "NOTE" {
		return true
	}
	return strings.HasPrefix(trimmed, "NOTE ") || strings.HasPrefix(trimmed, "NOTE\t")
}

func parseVTT(text string, language string) (cue.Document, error) {
	r := newLineReader(text)
	r.skipBlank()
	header, headerNo, ok := r.next()
	if !ok || !isVTTHeader(strings.TrimRight(header, " \t")) {
		if headerNo == 0 {
			headerNo = 1
		}
		return cue.Document{}, parseErrorf(cue.FormatVTT, headerNo, "missing %s header", vttHeader)
	}
	r.skipBlock()

	var cues []cue.Cue
	prev := 0
	for {
		r.skipBlank()
		line, lineNo, ok := r.next()
		if !ok {
			break
		}
		if isVTTMetadataBlock(line) {
			r.skipBlock()
			continue
		}
		timing, timingNo := line, lineNo
		index := prev + 1
		if !strings.Contains(line, timingArrow) {
			if n, numeric := positiveInt(line); numeric {
				if n <= prev {
					return cue.Document{}, parseErrorf(cue.FormatVTT, lineNo, "cue index %d out of order (previous %d)", n, prev)
				}
				index = n
			}
			timing, timingNo, ok = r.next()
			if !ok || isBlank(timing) {
				return cue.Document{}, parseErrorf(cue.FormatVTT, lineNo, "truncated cue block: missing timing line after identifier %q", strings.TrimSpace(line))
			}
		}
		start, end, err := parseTiming(timing, '.')
		if err != nil {
			return cue.Document{}, &ParseError{Format: cue.FormatVTT, Line: timingNo, Reason: err.Error(), Err: err}
		}
		c, err := cue.New(index, start, end, r.textLines()...)
		if err != nil {
			return cue.Document{}, &ParseError{Format: cue.FormatVTT, Line: timingNo, Reason: err.Error(), Err: err}
		}
		cues = append(cues, c)
		prev = index
	}
	return cue.NewDocument(cues, cue.FormatVTT, language)
}

func writeVTT(doc cue.Document) string {
	var b strings.Builder
	b.WriteString(vttHeader)
	b.WriteByte('\n')
	for i := 0; i < doc.Len(); i++ {
		c := doc.At(i)
		b.WriteByte('\n')
		b.WriteString(strconv.Itoa(c.Index()))
		b.WriteByte('\n')
		b.WriteString(formatTiming(c, '.'))
		b.WriteByte('\n')
		for _, line := range c.Lines() {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
