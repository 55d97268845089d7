package translation

import (
	"unicode/utf8"

	"dualsub/internal/cue"
)

// Default batch budget.
const (
	DefaultMaxChars = 2000
	DefaultMaxCues  = 40
)

// Budget bounds the size of one translation request.
type Budget struct {
	MaxChars int
	MaxCues  int
}

func (b Budget) normalized() Budget {
	if b.MaxChars <= 0 {
		b.MaxChars = DefaultMaxChars
	}
	if b.MaxCues <= 0 {
		b.MaxCues = DefaultMaxCues
	}
	return b
}

// Batch is a contiguous run of cues sent in one request.
type Batch struct {
	ID        int
	Positions []int
	Indices   []int
	Texts     []string
	chars     int
}

// Len returns the number of cues in the batch.
func (b Batch) Len() int { return len(b.Texts) }

// Chars returns the rune count of the batch text.
func (b Batch) Chars() int { return b.chars }

// Partition splits doc into batches in document order. A cue is never split;
// one that alone exceeds the character budget gets a batch of its own.
func Partition(doc cue.Document, budget Budget) []Batch {
	budget = budget.normalized()
	var batches []Batch
	current := Batch{ID: 1}
	for pos := 0; pos < doc.Len(); pos++ {
		c := doc.At(pos)
		text := c.Text()
		size := utf8.RuneCountInString(text)
		full := current.Len() >= budget.MaxCues || current.chars+size > budget.MaxChars
		if current.Len() > 0 && full {
			batches = append(batches, current)
			current = Batch{ID: current.ID + 1}
		}
		current.Positions = append(current.Positions, pos)
		current.Indices = append(current.Indices, c.Index())
		current.Texts = append(current.Texts, text)
		current.chars += size
	}
	if current.Len() > 0 {
		batches = append(batches, current)
	}
	return batches
}
