package main

import (
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/dustin/go-humanize"
)

func formatBitrate(bps int64) string {
	if bps <= 0 {
		return "-"
	}
	return humanize.SIWithDigits(float64(bps), 1, "bps")
}

func formatSize(bytes uint64) string {
	if bytes == 0 {
		return "-"
	}
	return bytefmt.ByteSize(bytes)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func firstLine(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.IndexByte(value, '\n'); idx >= 0 {
		value = value[:idx]
	}
	const limit = 60
	if runes := []rune(value); len(runes) > limit {
		value = string(runes[:limit-3]) + "..."
	}
	return value
}
