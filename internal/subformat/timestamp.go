package subformat

import (
	"fmt"
	"strings"

	"dualsub/internal/cue"
)

const timingArrow = "-->"

// parseClock reads HH:MM:SS<sep>mmm. Hours take two or more digits without
// extra zero padding so every accepted value formats back identically.
func parseClock(value string, sep byte) (cue.Timestamp, error) {
	if len(value) < len("00:00:00,000") {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	millisText := value[len(value)-3:]
	if value[len(value)-4] != sep {
		return 0, fmt.Errorf("malformed timestamp %q: expected %q before milliseconds", value, sep)
	}
	parts := strings.Split(value[:len(value)-4], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	hoursText, minutesText, secondsText := parts[0], parts[1], parts[2]
	if len(hoursText) < 2 || (len(hoursText) > 2 && hoursText[0] == '0') {
		return 0, fmt.Errorf("malformed timestamp %q: bad hour field", value)
	}
	if len(minutesText) != 2 || len(secondsText) != 2 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	hours, ok1 := digits(hoursText)
	minutes, ok2 := digits(minutesText)
	seconds, ok3 := digits(secondsText)
	millis, ok4 := digits(millisText)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, fmt.Errorf("malformed timestamp %q", value)
	}
	if minutes > 59 || seconds > 59 {
		return 0, fmt.Errorf("timestamp %q out of range", value)
	}
	return cue.FromParts(hours, minutes, seconds, millis), nil
}

// parseTiming reads "start --> end" and ignores anything after the end
// timestamp (WebVTT cue settings, SubRip coordinates).
func parseTiming(line string, sep byte) (cue.Timestamp, cue.Timestamp, error) {
	idx := strings.Index(line, timingArrow)
	if idx < 0 {
		return 0, 0, fmt.Errorf("missing %q in timing line %q", timingArrow, line)
	}
	startText := strings.TrimSpace(line[:idx])
	rest := strings.Fields(line[idx+len(timingArrow):])
	if len(rest) == 0 {
		return 0, 0, fmt.Errorf("missing end timestamp in %q", line)
	}
	start, err := parseClock(startText, sep)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(rest[0], sep)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func formatTiming(c cue.Cue, sep byte) string {
	return c.Start().Clock(sep) + " " + timingArrow + " " + c.End().Clock(sep)
}

func digits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var v int64
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < '0' || ch > '9' {
			return 0, false
		}
		v = v*10 + int64(ch-'0')
	}
	return v, true
}

func positiveInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 9 {
		return 0, false
	}
	v, ok := digits(s)
	if !ok || v == 0 {
		return 0, false
	}
	return int(v), true
}
