package subformat

import "strings"

// lineReader walks normalized input one line at a time, tracking 1-based line
// numbers for error reporting.
type lineReader struct {
	lines []string
	pos   int
}

func newLineReader(text string) *lineReader {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &lineReader{lines: strings.Split(text, "\n")}
}

func (r *lineReader) next() (string, int, bool) {
	if r.pos >= len(r.lines) {
		return "", r.pos, false
	}
	line := r.lines[r.pos]
	r.pos++
	return line, r.pos, true
}

func (r *lineReader) skipBlank() {
	for r.pos < len(r.lines) && isBlank(r.lines[r.pos]) {
		r.pos++
	}
}

func (r *lineReader) skipBlock() {
	for r.pos < len(r.lines) && !isBlank(r.lines[r.pos]) {
		r.pos++
	}
}

// textLines consumes lines up to the next blank line or end of input.
func (r *lineReader) textLines() []string {
	var out []string
	for r.pos < len(r.lines) && !isBlank(r.lines[r.pos]) {
		out = append(out, r.lines[r.pos])
		r.pos++
	}
	return out
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
