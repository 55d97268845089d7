package burnin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StyleValidationError names the style field that is out of its domain.
type StyleValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *StyleValidationError) Error() string {
	return fmt.Sprintf("invalid style %s %q: %s", e.Field, e.Value, e.Reason)
}

// Position places the subtitle block on screen.
type Position string

const (
	PositionBottom Position = "bottom"
	PositionTop    Position = "top"
	PositionMiddle Position = "middle"
)

// assAlignment maps positions to ASS numpad alignment codes.
var assAlignment = map[Position]int{
	PositionBottom: 2,
	PositionMiddle: 5,
	PositionTop:    8,
}

// palette lists the named colors accepted in style options.
var palette = map[string]string{
	"white":   "ffffff",
	"black":   "000000",
	"yellow":  "ffff00",
	"green":   "00ff00",
	"cyan":    "00ffff",
	"blue":    "0000ff",
	"magenta": "ff00ff",
	"red":     "ff0000",
}

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

// ParseColor accepts a palette name or a 6-digit hex literal with an optional
// leading '#'.
func ParseColor(value string) (Color, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if hex, ok := palette[normalized]; ok {
		normalized = hex
	}
	normalized = strings.TrimPrefix(normalized, "#")
	if len(normalized) != 6 {
		return Color{}, fmt.Errorf("expected a palette name or 6 hex digits")
	}
	v, err := strconv.ParseUint(normalized, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("expected a palette name or 6 hex digits")
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex returns the color as rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// ASS returns the color in ASS &HAABBGGRR notation with full opacity.
func (c Color) ASS() string {
	return fmt.Sprintf("&H00%02X%02X%02X", c.B, c.G, c.R)
}

// StyleOptions is the unvalidated, configuration-shaped style.
type StyleOptions struct {
	FontName     string
	FontSize     int
	Position     string
	FontColor    string
	OutlineColor string
	ShadowRadius float64
}

// Default style values.
const (
	DefaultFontName     = "Arial"
	DefaultFontSize     = 28
	DefaultPosition     = PositionBottom
	DefaultFontColor    = "white"
	DefaultOutlineColor = "black"
	DefaultShadowRadius = 1.0
)

// DefaultStyleOptions returns the stock burn-in style.
func DefaultStyleOptions() StyleOptions {
	return StyleOptions{
		FontName:     DefaultFontName,
		FontSize:     DefaultFontSize,
		Position:     string(DefaultPosition),
		FontColor:    DefaultFontColor,
		OutlineColor: DefaultOutlineColor,
		ShadowRadius: DefaultShadowRadius,
	}
}

// StyleSpec is a validated style.
type StyleSpec struct {
	fontName     string
	fontSize     int
	position     Position
	fontColor    Color
	outlineColor Color
	shadowRadius float64
}

// NewStyleSpec validates opts. An empty font name means DefaultFontName.
func NewStyleSpec(opts StyleOptions) (StyleSpec, error) {
	var spec StyleSpec

	fontName := strings.TrimSpace(opts.FontName)
	if fontName == "" {
		fontName = DefaultFontName
	}
	if strings.ContainsAny(fontName, ",:'=\\[];") {
		return spec, &StyleValidationError{Field: "fontName", Value: opts.FontName, Reason: "must not contain , : ' = \\ [ ] or ;"}
	}
	spec.fontName = fontName

	if opts.FontSize <= 0 {
		return spec, &StyleValidationError{Field: "fontSize", Value: strconv.Itoa(opts.FontSize), Reason: "must be a positive integer"}
	}
	spec.fontSize = opts.FontSize

	position := Position(strings.ToLower(strings.TrimSpace(opts.Position)))
	if _, ok := assAlignment[position]; !ok {
		return spec, &StyleValidationError{Field: "position", Value: opts.Position, Reason: "must be bottom, top or middle"}
	}
	spec.position = position

	fontColor, err := ParseColor(opts.FontColor)
	if err != nil {
		return spec, &StyleValidationError{Field: "fontColor", Value: opts.FontColor, Reason: err.Error()}
	}
	spec.fontColor = fontColor

	outlineColor, err := ParseColor(opts.OutlineColor)
	if err != nil {
		return spec, &StyleValidationError{Field: "outlineColor", Value: opts.OutlineColor, Reason: err.Error()}
	}
	spec.outlineColor = outlineColor

	if math.IsNaN(opts.ShadowRadius) || math.IsInf(opts.ShadowRadius, 0) || opts.ShadowRadius < 0 {
		return spec, &StyleValidationError{
			Field:  "shadowRadius",
			Value:  strconv.FormatFloat(opts.ShadowRadius, 'g', -1, 64),
			Reason: "must be a non-negative number",
		}
	}
	spec.shadowRadius = opts.ShadowRadius

	return spec, nil
}

func (s StyleSpec) FontName() string      { return s.fontName }
func (s StyleSpec) FontSize() int         { return s.fontSize }
func (s StyleSpec) Position() Position    { return s.position }
func (s StyleSpec) FontColor() Color      { return s.fontColor }
func (s StyleSpec) OutlineColor() Color   { return s.outlineColor }
func (s StyleSpec) ShadowRadius() float64 { return s.shadowRadius }

// IsZero reports whether s was never validated.
func (s StyleSpec) IsZero() bool { return s.fontSize == 0 }

// ForceStyle renders the ASS override string for the subtitles filter.
func (s StyleSpec) ForceStyle() string {
	fields := []string{
		"FontName=" + s.fontName,
		"FontSize=" + strconv.Itoa(s.fontSize),
		"PrimaryColour=" + s.fontColor.ASS(),
		"OutlineColour=" + s.outlineColor.ASS(),
		"BorderStyle=1",
		"Outline=2",
		"Shadow=" + strconv.FormatFloat(s.shadowRadius, 'f', -1, 64),
		"Bold=1",
		"Alignment=" + strconv.Itoa(assAlignment[s.position]),
	}
	return strings.Join(fields, ",")
}
