package httpapi

type errorResponse struct {
	Error string `json:"error"`
	// Line is set for subtitle parse errors.
	Line  int    `json:"line,omitempty"`
	Field string `json:"field,omitempty"`
}

// DocumentResponse carries an encoded subtitle document.
type DocumentResponse struct {
	Content  string `json:"content"`
	Format   string `json:"format"`
	Language string `json:"language,omitempty"`
	Cues     int    `json:"cues"`
	// Lossy is set when the target format drops timing.
	Lossy bool `json:"lossy,omitempty"`
}

// ConvertRequest re-encodes a subtitle document. From defaults to sniffing
// the content.
type ConvertRequest struct {
	Content string `json:"content"`
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
}

// MergeRequest combines an original and a translated document.
type MergeRequest struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	// Format is the input format of both documents and, unless To is set,
	// the output format.
	Format string `json:"format,omitempty"`
	To     string `json:"to,omitempty"`
	Order  string `json:"order,omitempty"`
	// Languages tag the merged result.
	OriginalLanguage   string `json:"original_language,omitempty"`
	TranslatedLanguage string `json:"translated_language,omitempty"`
}

// StyleRequest validates a style and optionally builds a burn-in command.
// Omitted style fields take the configured defaults.
type StyleRequest struct {
	FontName     *string  `json:"font_name,omitempty"`
	FontSize     *int     `json:"font_size,omitempty"`
	Position     *string  `json:"position,omitempty"`
	FontColor    *string  `json:"font_color,omitempty"`
	OutlineColor *string  `json:"outline_color,omitempty"`
	ShadowRadius *float64 `json:"shadow_radius,omitempty"`

	Video    string `json:"video,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Output   string `json:"output,omitempty"`
}

// StyleResponse describes a validated style.
type StyleResponse struct {
	ForceStyle string   `json:"force_style"`
	Filter     string   `json:"filter,omitempty"`
	Command    []string `json:"command,omitempty"`
}

// TranslateRequest translates a subtitle document.
type TranslateRequest struct {
	Content        string `json:"content"`
	Format         string `json:"format,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}
