package language

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "English", []string{"english"}},
	{"zh", "zho", "Chinese", []string{"chinese", "mandarin"}},
	{"ja", "jpn", "Japanese", []string{"japanese"}},
	{"ko", "kor", "Korean", []string{"korean"}},
	{"es", "spa", "Spanish", []string{"spanish"}},
	{"fr", "fra", "French", []string{"french"}},
	{"de", "deu", "German", []string{"german"}},
	{"it", "ita", "Italian", []string{"italian"}},
	{"pt", "por", "Portuguese", []string{"portuguese"}},
	{"ru", "rus", "Russian", []string{"russian"}},
	{"ar", "ara", "Arabic", []string{"arabic"}},
	{"hi", "hin", "Hindi", []string{"hindi"}},
	{"vi", "vie", "Vietnamese", []string{"vietnamese"}},
	{"th", "tha", "Thai", []string{"thai"}},
	{"tr", "tur", "Turkish", []string{"turkish"}},
	{"nl", "nld", "Dutch", []string{"dutch"}},
	{"pl", "pol", "Polish", []string{"polish"}},
	{"sv", "swe", "Swedish", []string{"swedish"}},
}

// Regional display names for tags commonly used as translation targets.
var regional = map[string]string{
	"zh-CN": "Simplified Chinese",
	"zh-TW": "Traditional Chinese",
	"pt-BR": "Brazilian Portuguese",
	"en-GB": "British English",
	"en-US": "American English",
}

var (
	byCode2 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode2[e.code3] = e
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

// markerPattern matches language codes allowed in artifact file names.
var markerPattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// IsFileMarker reports whether code can appear as the language segment of an
// artifact name such as movie.zh-CN.srt.
func IsFileMarker(code string) bool {
	return markerPattern.MatchString(code)
}

// Canonical validates a BCP 47 tag and returns its canonical spelling
// ("zh-cn" becomes "zh-CN"). Word forms such as "french" are accepted.
func Canonical(code string) (string, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	if trimmed == "" {
		return "", fmt.Errorf("language code is empty")
	}
	if e, ok := byWord[strings.ToLower(trimmed)]; ok {
		return e.code2, nil
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return tag.String(), nil
}

// ToISO2 reduces a code to its ISO 639-1 base language, or "" when unknown.
// "auto" and "und" also yield "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" || code == "auto" || code == "und" {
		return ""
	}
	if e, ok := byWord[code]; ok {
		return e.code2
	}
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if e, ok := byCode2[base.String()]; ok {
		return e.code2
	}
	if b := base.String(); len(b) == 2 {
		return b
	}
	return ""
}

// DisplayName returns a human-readable name for a tag.
// Returns "Unknown" for empty input, or the input unchanged when unrecognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if canonical, err := Canonical(trimmed); err == nil {
		if name, ok := regional[canonical]; ok {
			return name
		}
	}
	if e, ok := byCode2[ToISO2(trimmed)]; ok {
		return e.display
	}
	return trimmed
}
