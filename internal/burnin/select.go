package burnin

import (
	"fmt"
	"path/filepath"
	"strings"

	"dualsub/internal/cue"
	"dualsub/internal/language"
)

// Kind classifies a subtitle artifact.
type Kind string

const (
	KindOriginal   Kind = "original"
	KindTranslated Kind = "translated"
	KindBilingual  Kind = "bilingual"
)

// DefaultPreference is the kind order used when none is requested.
var DefaultPreference = []Kind{KindBilingual, KindTranslated, KindOriginal}

// ParseKind resolves a kind name.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindOriginal, KindTranslated, KindBilingual:
		return k, nil
	default:
		return "", fmt.Errorf("unknown subtitle kind %q (want original, translated or bilingual)", value)
	}
}

// Candidate is a subtitle file that could be burned.
type Candidate struct {
	Path     string
	Kind     Kind
	Language string
}

// Marker returns the output-name marker for the candidate.
func (c Candidate) Marker() string {
	if c.Kind == KindTranslated && c.Language != "" {
		return c.Language
	}
	return string(c.Kind)
}

// SelectionError reports that no candidate has the requested kind.
type SelectionError struct {
	Requested []Kind
	Available []Kind
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("no %s subtitle available (found: %s)", joinKinds(e.Requested, " or "), joinKinds(e.Available, ", "))
}

func joinKinds(kinds []Kind, sep string) string {
	if len(kinds) == 0 {
		return "none"
	}
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, sep)
}

// Select returns the first candidate of exactly the requested kind. It never
// substitutes another kind.
func Select(candidates []Candidate, kind Kind) (Candidate, error) {
	for _, c := range candidates {
		if c.Kind == kind {
			return c, nil
		}
	}
	return Candidate{}, &SelectionError{Requested: []Kind{kind}, Available: kinds(candidates)}
}

// SelectPreferred walks order and returns the first exact match.
func SelectPreferred(candidates []Candidate, order []Kind) (Candidate, error) {
	if len(order) == 0 {
		order = DefaultPreference
	}
	for _, kind := range order {
		if c, err := Select(candidates, kind); err == nil {
			return c, nil
		}
	}
	return Candidate{}, &SelectionError{Requested: order, Available: kinds(candidates)}
}

func kinds(candidates []Candidate) []Kind {
	var out []Kind
	seen := make(map[Kind]bool)
	for _, c := range candidates {
		if !seen[c.Kind] {
			seen[c.Kind] = true
			out = append(out, c.Kind)
		}
	}
	return out
}

// Classify tags a subtitle file named after videoBase:
// base.srt is original, base.bilingual.srt bilingual, base.<lang>.srt
// translated. Other names are not candidates.
func Classify(path, videoBase string) (Candidate, bool) {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if _, err := cue.ParseFormat(ext); err != nil || ext == cue.FormatText.Extension() {
		return Candidate{}, false
	}
	stem := strings.TrimSuffix(name, ext)
	if stem == videoBase {
		return Candidate{Path: path, Kind: KindOriginal}, true
	}
	marker, ok := strings.CutPrefix(stem, videoBase+".")
	if !ok {
		return Candidate{}, false
	}
	switch {
	case marker == string(KindBilingual):
		return Candidate{Path: path, Kind: KindBilingual}, true
	case language.IsFileMarker(marker):
		return Candidate{Path: path, Kind: KindTranslated, Language: marker}, true
	default:
		return Candidate{}, false
	}
}

// ClassifyAll classifies paths, keeping only candidates, in input order.
func ClassifyAll(paths []string, videoBase string) []Candidate {
	var out []Candidate
	for _, p := range paths {
		if c, ok := Classify(p, videoBase); ok {
			out = append(out, c)
		}
	}
	return out
}
