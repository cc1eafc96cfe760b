package format

import (
	"fmt"
	"time"
)

// Timecode formats a duration as H:MM:SS with floor-second precision.
// The hour field is not zero-padded and grows without bound:
// 0 -> "0:00:00", 1h1m1s -> "1:01:01", 25h -> "25:00:00".
// Negative durations are clamped to zero.
func Timecode(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// DurationCompact renders a duration the way a person would say it:
// "2h", "1h30m", "30m", "45s". Sub-minute remainders of an hour or
// minute value are dropped, not rounded.
func DurationCompact(d time.Duration) string {
	switch {
	case d >= time.Hour:
		h, m := d/time.Hour, (d%time.Hour)/time.Minute
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	case d >= time.Minute:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

// DurationSeconds formats a duration at whole-second precision using Go's
// native notation: "0s", "12s", "2m5s", "1h1m30s". Negative durations are
// clamped to zero.
func DurationSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}

// Bytes renders a byte count with a coarse unit: whole megabytes from
// 1MB up, whole kilobytes from 1KB up, raw bytes below that.
func Bytes(bytes int64) string {
	const (
		kilobyte = 1 << 10
		megabyte = 1 << 20
	)
	switch {
	case bytes >= megabyte:
		return fmt.Sprintf("%d MB", bytes/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf("%d KB", bytes/kilobyte)
	case bytes == 1:
		return "1 byte"
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
