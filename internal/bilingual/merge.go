// Package bilingual combines an original document with its translation into a
// single dual-language document. Alignment is strictly by cue index and
// timing; documents that do not line up are rejected.
package bilingual

import (
	"fmt"
	"strings"

	"dualsub/internal/cue"
)

// Order selects how original and translated lines are combined.
type Order string

const (
	OrderOriginalFirst   Order = "original_first"
	OrderTranslatedFirst Order = "translated_first"
	OrderInterleaved     Order = "interleaved"
)

// ParseOrder resolves a configured order name; empty means original first.
func ParseOrder(value string) (Order, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_")
	switch Order(normalized) {
	case "", OrderOriginalFirst:
		return OrderOriginalFirst, nil
	case OrderTranslatedFirst:
		return OrderTranslatedFirst, nil
	case OrderInterleaved:
		return OrderInterleaved, nil
	default:
		return "", fmt.Errorf("unknown bilingual order %q", value)
	}
}

// Options configures Merge.
type Options struct {
	Order Order
}

// AlignmentError reports documents that cannot be merged.
type AlignmentError struct {
	// Position is the zero-based cue position of the mismatch, or -1 when the
	// cue counts differ.
	Position        int
	OriginalIndex   int
	TranslatedIndex int
	OriginalCount   int
	TranslatedCount int
	Reason          string
}

func (e *AlignmentError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("bilingual merge: %s (original %d cues, translated %d cues)", e.Reason, e.OriginalCount, e.TranslatedCount)
	}
	return fmt.Sprintf("bilingual merge: cue at position %d: %s (original #%d, translated #%d)",
		e.Position, e.Reason, e.OriginalIndex, e.TranslatedIndex)
}

// Cue pairs one original cue with its translation.
type Cue struct {
	Original   cue.Cue
	Translated cue.Cue
}

// Lines combines both texts in the given order.
func (p Cue) Lines(order Order) []string {
	orig, trans := p.Original.Lines(), p.Translated.Lines()
	switch order {
	case OrderTranslatedFirst:
		return append(trans, orig...)
	case OrderInterleaved:
		out := make([]string, 0, len(orig)+len(trans))
		for i := 0; i < max(len(orig), len(trans)); i++ {
			if i < len(orig) {
				out = append(out, orig[i])
			}
			if i < len(trans) {
				out = append(out, trans[i])
			}
		}
		return out
	default:
		return append(orig, trans...)
	}
}

// Pairs aligns the two documents cue by cue.
func Pairs(original, translated cue.Document) ([]Cue, error) {
	if original.Len() != translated.Len() {
		return nil, &AlignmentError{
			Position:        -1,
			OriginalCount:   original.Len(),
			TranslatedCount: translated.Len(),
			Reason:          "cue counts differ",
		}
	}
	pairs := make([]Cue, original.Len())
	for i := range pairs {
		o, t := original.At(i), translated.At(i)
		if o.Index() != t.Index() {
			return nil, &AlignmentError{Position: i, OriginalIndex: o.Index(), TranslatedIndex: t.Index(), Reason: "cue indices differ"}
		}
		if o.Start() != t.Start() || o.End() != t.End() {
			return nil, &AlignmentError{
				Position:        i,
				OriginalIndex:   o.Index(),
				TranslatedIndex: t.Index(),
				Reason:          fmt.Sprintf("timings differ (%s --> %s vs %s --> %s)", o.Start(), o.End(), t.Start(), t.End()),
			}
		}
		pairs[i] = Cue{Original: o, Translated: t}
	}
	return pairs, nil
}

// Merge builds the bilingual document. The result keeps the original format
// and carries a composite language tag.
func Merge(original, translated cue.Document, opts Options) (cue.Document, error) {
	pairs, err := Pairs(original, translated)
	if err != nil {
		return cue.Document{}, err
	}
	cues := make([]cue.Cue, len(pairs))
	for i, p := range pairs {
		cues[i] = p.Original.WithLines(p.Lines(opts.Order)...)
	}
	return cue.NewDocument(cues, original.Format(), Language(original.Language(), translated.Language()))
}

const languageSeparator = "+"

// Language builds the composite tag for a bilingual document.
func Language(original, translated string) string {
	original, translated = strings.TrimSpace(original), strings.TrimSpace(translated)
	if original == "" {
		original = "und"
	}
	if translated == "" {
		translated = "und"
	}
	return original + languageSeparator + translated
}

// IsBilingual reports whether lang is a composite tag built by Language.
func IsBilingual(lang string) bool {
	before, after, ok := strings.Cut(lang, languageSeparator)
	return ok && before != "" && after != ""
}
