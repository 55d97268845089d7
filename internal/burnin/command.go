package burnin

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"dualsub/internal/language"
)

// EncodeSettings are the encoder parameters that do not depend on style.
type EncodeSettings struct {
	Binary     string
	VideoCodec string
	CRF        int
	AudioCodec string
}

// DefaultEncodeSettings returns libx264 at CRF 18 with audio passthrough.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{Binary: "ffmpeg", VideoCodec: "libx264", CRF: 18, AudioCodec: "copy"}
}

// Request describes one burn-in job.
type Request struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	Style        StyleSpec
	Encode       EncodeSettings
}

// Command is an external process invocation.
type Command struct {
	Binary string
	Args   []string
}

// String renders the command for logs and dry runs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, shellQuote(c.Binary))
	for _, arg := range c.Args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// FilterSpec builds the subtitles video filter for path and style.
func FilterSpec(subtitlePath string, style StyleSpec) string {
	return "subtitles=filename=" + escapeFilterValue(subtitlePath) +
		":force_style=" + escapeFilterValue(style.ForceStyle())
}

// BuildCommand validates req and returns the encoder invocation. It does not
// run anything.
func BuildCommand(req Request) (Command, error) {
	video := strings.TrimSpace(req.VideoPath)
	subtitle := strings.TrimSpace(req.SubtitlePath)
	output := strings.TrimSpace(req.OutputPath)
	switch {
	case video == "":
		return Command{}, errors.New("burn-in: video path required")
	case subtitle == "":
		return Command{}, errors.New("burn-in: subtitle path required")
	case output == "":
		return Command{}, errors.New("burn-in: output path required")
	case filepath.Clean(output) == filepath.Clean(video):
		return Command{}, errors.New("burn-in: output path must differ from the input video")
	case req.Style.IsZero():
		return Command{}, errors.New("burn-in: style not validated")
	}

	enc := req.Encode
	defaults := DefaultEncodeSettings()
	if enc == (EncodeSettings{}) {
		enc = defaults
	}
	if strings.TrimSpace(enc.Binary) == "" {
		enc.Binary = defaults.Binary
	}
	if strings.TrimSpace(enc.VideoCodec) == "" {
		enc.VideoCodec = defaults.VideoCodec
	}
	if strings.TrimSpace(enc.AudioCodec) == "" {
		enc.AudioCodec = defaults.AudioCodec
	}
	if enc.CRF < 0 || enc.CRF > 51 {
		return Command{}, fmt.Errorf("burn-in: crf %d outside 0-51", enc.CRF)
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", video,
		"-vf", FilterSpec(subtitle, req.Style),
		"-c:v", enc.VideoCodec,
		"-crf", strconv.Itoa(enc.CRF),
		"-c:a", enc.AudioCodec,
		output,
	}
	return Command{Binary: enc.Binary, Args: args}, nil
}

// OutputPath returns <dir>/<base>.<marker>.hardcoded<ext> for a video.
// marker is "bilingual", "original" or a file-safe language code.
func OutputPath(videoPath, marker string) (string, error) {
	marker = strings.TrimSpace(marker)
	if marker != string(KindBilingual) && marker != string(KindOriginal) && !language.IsFileMarker(marker) {
		return "", fmt.Errorf("burn-in: invalid output marker %q", marker)
	}
	dir := filepath.Dir(videoPath)
	ext := filepath.Ext(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), ext)
	return filepath.Join(dir, base+"."+marker+".hardcoded"+ext), nil
}

// escapeFilterValue applies both escaping levels of the ffmpeg filtergraph
// syntax: option values first, then the graph description.
func escapeFilterValue(value string) string {
	return escapeChars(escapeChars(value, `\':`), `\'[],;`)
}

func escapeChars(value, special string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`&;|<>()*?[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
