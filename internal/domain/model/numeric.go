package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Sentinel error kinds shared by the calculators. These allow errors.Is/As from callers.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// timestampLayout renders ISO-8601 with millisecond precision in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ClampZero floors v at zero.
func ClampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FormatTimestamp renders t as an ISO-8601 UTC string.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseTimestamp parses an ISO-8601 timestamp. Values without a zone are
// read as UTC; a bare date means midnight UTC.
func ParseTimestamp(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %w: %s %q is not a valid ISO-8601 date", ErrInvalidInput, ErrInvalidTimestamp, field, value)
}
