package subformat

import (
	"fmt"
	"path/filepath"
	"strings"

	"dualsub/internal/cue"
)

// Option adjusts parsing.
type Option func(*parseOptions)

type parseOptions struct {
	language string
}

// WithLanguage tags the parsed document with a language code.
func WithLanguage(lang string) Option {
	return func(o *parseOptions) {
		o.language = strings.TrimSpace(lang)
	}
}

// Parse decodes text in the declared format.
func Parse(text string, format cue.Format, opts ...Option) (cue.Document, error) {
	var o parseOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	switch format {
	case cue.FormatSRT:
		return parseSRT(text, o.language)
	case cue.FormatVTT:
		return parseVTT(text, o.language)
	case cue.FormatText:
		return parseText(text, o.language)
	default:
		return cue.Document{}, &ParseError{Format: format, Reason: "unsupported format"}
	}
}

// Write encodes doc in the target format. Unknown formats fall back to SubRip.
func Write(doc cue.Document, format cue.Format) string {
	switch format {
	case cue.FormatVTT:
		return writeVTT(doc)
	case cue.FormatText:
		return writeText(doc)
	default:
		return writeSRT(doc)
	}
}

// Convert re-encodes doc in another format and retags it.
func Convert(doc cue.Document, format cue.Format) (cue.Document, string) {
	out := doc.WithFormat(format)
	return out, Write(out, format)
}

// Representable reports why doc would not survive a Write/Parse round trip in
// format, or nil when it would.
func Representable(doc cue.Document, format cue.Format) error {
	if format == cue.FormatText {
		return ErrLossyFormat
	}
	for i := 0; i < doc.Len(); i++ {
		c := doc.At(i)
		for _, line := range c.Lines() {
			if isBlank(line) {
				return fmt.Errorf("cue %d: blank text line", c.Index())
			}
			if strings.ContainsAny(line, "\r\n") {
				return fmt.Errorf("cue %d: text line contains a line break", c.Index())
			}
			if format == cue.FormatVTT && strings.Contains(line, timingArrow) {
				return fmt.Errorf("cue %d: text line contains %q", c.Index(), timingArrow)
			}
		}
	}
	return nil
}

// FormatFromPath infers a format from a file extension.
func FormatFromPath(path string) (cue.Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("subtitle path %q has no extension", path)
	}
	return cue.ParseFormat(ext)
}

// Sniff guesses the format of raw text.
func Sniff(text string) cue.Format {
	trimmed := strings.TrimLeft(strings.TrimPrefix(text, "\ufeff"), " \t\r\n")
	switch {
	case isVTTHeader(firstLine(trimmed)):
		return cue.FormatVTT
	case strings.Contains(trimmed, timingArrow):
		return cue.FormatSRT
	default:
		return cue.FormatText
	}
}

func firstLine(s string) string {
	if idx := strings.IndexAny(s, "\r\n"); idx >= 0 {
		return s[:idx]
	}
	return s
}
