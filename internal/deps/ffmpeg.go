package deps

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const filterProbeTimeout = 10 * time.Second

// CheckSubtitlesFilter reports whether the ffmpeg build includes the libass
// "subtitles" filter that burn-in depends on.
func CheckSubtitlesFilter(ctx context.Context, ffmpegBinary string) Status {
	result := Status{
		Name:        "FFmpeg subtitles filter",
		Command:     strings.TrimSpace(ffmpegBinary),
		Description: "Required for burn-in (ffmpeg built with libass)",
		Optional:    true,
	}
	if result.Command == "" {
		result.Command = "ffmpeg"
	}
	resolved, err := exec.LookPath(result.Command)
	if err != nil {
		result.Detail = fmt.Sprintf("binary %q not found", result.Command)
		return result
	}
	result.Command = resolved

	ctx, cancel := context.WithTimeout(ctx, filterProbeTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, resolved, "-hide_banner", "-filters").Output() //nolint:gosec
	if err != nil {
		result.Detail = fmt.Sprintf("list filters: %v", err)
		return result
	}
	if !hasFilter(string(output), "subtitles") {
		result.Detail = "ffmpeg was built without libass"
		return result
	}
	result.Available = true
	return result
}

// hasFilter scans `ffmpeg -filters` output, whose rows look like
// " T.. subtitles         V->V       Render text subtitles ...".
func hasFilter(listing, name string) bool {
	scanner := bufio.NewScanner(strings.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
