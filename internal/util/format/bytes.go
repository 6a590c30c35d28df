package format

import (
	"fmt"
	"strconv"
	"strings"
)

// MiB is the unit size limits are given in.
const MiB = 1024 * 1024

// HumanizeBytes renders a byte count with the largest binary unit that
// keeps the value at or above one, e.g. "7.84 MiB".
func HumanizeBytes(b int64) string {
	if b < 1024 {
		return strconv.FormatInt(b, 10) + " B"
	}
	v := float64(b) / 1024
	units := []string{"KiB", "MiB", "GiB"}
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(v, 'f', 2, 64) + " " + units[i]
}

// SizeBreakdown lists the size in bytes and then in every larger unit it
// reaches, e.g. "8214016 B, 8021.50 KiB, 7.83 MiB".
func SizeBreakdown(b int64) string {
	parts := []string{fmt.Sprintf("%d B", b)}
	if b >= 1024 {
		parts = append(parts, fmt.Sprintf("%.2f KiB", float64(b)/1024))
	}
	if b >= MiB {
		parts = append(parts, fmt.Sprintf("%.2f MiB", float64(b)/MiB))
	}
	return strings.Join(parts, ", ")
}

// LimitBytes converts a limit in MiB to whole bytes.
func LimitBytes(mib float64) int64 {
	return int64(mib * MiB)
}
