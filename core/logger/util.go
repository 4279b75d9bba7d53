package logger

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// Status returns an outcome attribute derived from an error value.
func Status(err error) slog.Attr {
	if err != nil {
		return slog.String("status", statusError)
	}
	return slog.String("status", statusOK)
}

// Took converts an operation start time into a duration_ms attribute.
func Took(start time.Time) slog.Attr {
	return slog.Float64("duration_ms", RoundMS(time.Since(start)))
}

// RoundMS renders a duration as milliseconds with 0.1ms precision.
func RoundMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*10) / 10
}

// SummarizeStrings joins up to max values for compact logging and
// reports the overflow count when truncated.
func SummarizeStrings(values []string, max int) string {
	if len(values) == 0 {
		return ""
	}
	if max <= 0 || len(values) <= max {
		return strings.Join(values, ",")
	}
	shown := strings.Join(values[:max], ",")
	return shown + ",+" + strconv.Itoa(len(values)-max)
}
