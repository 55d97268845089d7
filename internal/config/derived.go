package config

import (
	"slices"

	"dualsub/internal/bilingual"
	"dualsub/internal/burnin"
	"dualsub/internal/cue"
)

// StyleOptions returns the configured burn-in style, unvalidated.
func (c *Config) StyleOptions() burnin.StyleOptions {
	return burnin.StyleOptions{
		FontName:     c.Style.FontName,
		FontSize:     c.Style.FontSize,
		Position:     c.Style.Position,
		FontColor:    c.Style.FontColor,
		OutlineColor: c.Style.OutlineColor,
		ShadowRadius: c.Style.ShadowRadius,
	}
}

// EncodeSettings returns the burn-in encoder settings.
func (c *Config) EncodeSettings() burnin.EncodeSettings {
	return burnin.EncodeSettings{
		Binary:     c.FFmpegBinary(),
		VideoCodec: c.Burn.VideoCodec,
		CRF:        c.Burn.CRF,
		AudioCodec: c.Burn.AudioCodec,
	}
}

// KindPreference returns the burn-in kind preference order. Unknown names are
// skipped; Validate rejects them on load.
func (c *Config) KindPreference() []burnin.Kind {
	kinds := make([]burnin.Kind, 0, len(c.Burn.KindPreference))
	for _, name := range c.Burn.KindPreference {
		if kind, err := burnin.ParseKind(name); err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// OutputFormats returns the configured artifact formats.
func (c *Config) OutputFormats() []cue.Format {
	formats := make([]cue.Format, 0, len(c.Output.Formats))
	for _, name := range c.Output.Formats {
		if format, err := cue.ParseFormat(name); err == nil && !slices.Contains(formats, format) {
			formats = append(formats, format)
		}
	}
	return formats
}

// BilingualOrder returns the configured line order for merged cues.
func (c *Config) BilingualOrder() bilingual.Order {
	order, err := bilingual.ParseOrder(c.Output.BilingualOrder)
	if err != nil {
		return bilingual.OrderOriginalFirst
	}
	return order
}

func sortedStrings(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
