// Package summary turns a subtitle document into a markdown summary of the
// video using a chat model.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dualsub/internal/cue"
	"dualsub/internal/language"
	"dualsub/internal/services/llm"
)

// DefaultMaxChars bounds the transcript sent to the model.
const DefaultMaxChars = 120000

// ErrEmptyTranscript is returned for documents without any text.
var ErrEmptyTranscript = errors.New("summary: transcript is empty")

// Completer is the free-text completion both provider clients implement.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options configures Summarize.
type Options struct {
	// Language is the language the summary is written in.
	Language string
	// MaxChars truncates the transcript; zero means DefaultMaxChars.
	MaxChars int
}

// Result carries the summary and whether the transcript was cut.
type Result struct {
	Markdown  string
	Truncated bool
	Chars     int
}

// Text flattens doc into one line per cue line, dropping immediate repeats
// that speech-to-text tends to produce.
func Text(doc cue.Document) string {
	var b strings.Builder
	prev := ""
	for i := 0; i < doc.Len(); i++ {
		for _, line := range doc.At(i).Lines() {
			line = strings.TrimSpace(line)
			if line == "" || line == prev {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(line)
			prev = line
		}
	}
	return b.String()
}

func systemPrompt(lang string) string {
	name := language.DisplayName(lang)
	return fmt.Sprintf(`You summarize videos from their subtitles.
Write the summary in %s regardless of the subtitle language.
Cover the main topic and purpose, the key points and important information, how the content is structured, and any notable data, facts or opinions.
Format the answer as Markdown with a top-level heading, subheadings and lists. Be thorough but concise.`, name)
}

// Summarize asks c for a markdown summary of doc.
func Summarize(ctx context.Context, c Completer, doc cue.Document, opts Options) (Result, error) {
	if c == nil {
		return Result{}, errors.New("summary: completer not configured")
	}
	text := Text(doc)
	if text == "" {
		return Result{}, ErrEmptyTranscript
	}
	limit := opts.MaxChars
	if limit <= 0 {
		limit = DefaultMaxChars
	}
	truncated := false
	if runes := []rune(text); len(runes) > limit {
		text = string(runes[:limit])
		truncated = true
	}
	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = doc.Language()
	}

	reply, err := c.Complete(ctx, systemPrompt(lang), "Subtitle text:\n\n"+text)
	if err != nil {
		return Result{}, fmt.Errorf("summary: %w", err)
	}
	markdown := llm.StripCodeFence(reply)
	if markdown == "" {
		return Result{}, errors.New("summary: model returned no text")
	}
	return Result{Markdown: markdown, Truncated: truncated, Chars: len([]rune(text))}, nil
}
