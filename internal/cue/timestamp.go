package cue

import (
	"fmt"
	"math"
	"time"
)

// Timestamp is a media offset in whole milliseconds.
type Timestamp int64

// Millisecond and friends are Timestamp units.
const (
	Millisecond Timestamp = 1
	Second                = 1000 * Millisecond
	Minute                = 60 * Second
	Hour                  = 60 * Minute
)

// FromSeconds converts fractional seconds, rounding half away from zero.
func FromSeconds(seconds float64) Timestamp {
	return Timestamp(math.Round(seconds * 1000))
}

// FromDuration converts a duration, rounding half away from zero.
func FromDuration(d time.Duration) Timestamp {
	ms := d / time.Millisecond
	rem := d % time.Millisecond
	switch {
	case rem >= time.Millisecond/2:
		ms++
	case rem <= -time.Millisecond/2:
		ms--
	}
	return Timestamp(ms)
}

// FromParts assembles a timestamp from clock components.
func FromParts(hours, minutes, seconds, millis int64) Timestamp {
	return Timestamp(hours)*Hour + Timestamp(minutes)*Minute + Timestamp(seconds)*Second + Timestamp(millis)
}

// Add returns t+d.
func (t Timestamp) Add(d Timestamp) Timestamp { return t + d }

// Sub returns t-u.
func (t Timestamp) Sub(u Timestamp) Timestamp { return t - u }

// Compare returns -1, 0 or +1.
func (t Timestamp) Compare(u Timestamp) int {
	switch {
	case t < u:
		return -1
	case t > u:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly earlier than u.
func (t Timestamp) Before(u Timestamp) bool { return t < u }

// Duration converts to a time.Duration.
func (t Timestamp) Duration() time.Duration { return time.Duration(t) * time.Millisecond }

// Seconds returns the value in fractional seconds.
func (t Timestamp) Seconds() float64 { return float64(t) / 1000 }

// Parts splits a non-negative timestamp into clock components.
func (t Timestamp) Parts() (hours, minutes, seconds, millis int64) {
	v := int64(t)
	if v < 0 {
		v = -v
	}
	hours = v / int64(Hour)
	v %= int64(Hour)
	minutes = v / int64(Minute)
	v %= int64(Minute)
	seconds = v / int64(Second)
	millis = v % int64(Second)
	return hours, minutes, seconds, millis
}

// Clock formats the timestamp as HH:MM:SS<sep>mmm.
func (t Timestamp) Clock(sep byte) string {
	h, m, s, ms := t.Parts()
	sign := ""
	if t < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%02d:%02d:%02d%c%03d", sign, h, m, s, sep, ms)
}

func (t Timestamp) String() string { return t.Clock('.') }
