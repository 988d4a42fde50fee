package report

import (
	"fmt"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

var (
	binaryPrefixes  = []string{"", "Ki", "Mi", "Gi", "Ti", "Pi"}
	decimalPrefixes = []string{"", "k", "M", "G", "T", "P"}
)

// FormatRaw renders a value in its plain unit: seconds with one decimal,
// counters as integers
func FormatRaw(unit domain.Unit, v float64) string {
	if unit == domain.UnitSeconds {
		return fmt.Sprintf("%.1fs", v)
	}
	return fmt.Sprintf("%d", int64(v))
}

// FormatHuman renders a value for reading: time as [H:]MM:SS, bytes with
// binary prefixes and ops with decimal prefixes
func FormatHuman(unit domain.Unit, v float64) string {
	switch unit {
	case domain.UnitSeconds:
		return formatDuration(v)
	case domain.UnitBytes:
		return formatPrefixed(v, 1024, binaryPrefixes, "B")
	case domain.UnitOps:
		return formatPrefixed(v, 1000, decimalPrefixes, "ops")
	}
	return FormatRaw(unit, v)
}

func formatDuration(secs float64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	hours := int(secs / 3600)
	secs -= float64(hours) * 3600
	mins := int(secs / 60)
	secs -= float64(mins) * 60
	if hours > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d", sign, hours, mins, int(secs))
	}
	return fmt.Sprintf("%s%02d:%04.1f", sign, mins, secs)
}

// formatPrefixed scales v to the largest prefix that keeps it >= 1.
// Zero and negative values are printed as raw integers.
func formatPrefixed(v, base float64, prefixes []string, suffix string) string {
	if v <= 0 {
		return fmt.Sprintf("%d%s", int64(v), suffix)
	}
	dec := 0
	for v >= base && dec < len(prefixes)-1 {
		v /= base
		dec++
	}
	return fmt.Sprintf("%.1f%s%s", v, prefixes[dec], suffix)
}

// FormatPercent renders a relative difference with explicit sign
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.1f%%", v)
}
