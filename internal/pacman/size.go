package pacman

import (
	"strconv"
	"strings"
)

// sizeUnits maps pacman's binary size units to byte multipliers.
var sizeUnits = map[string]float64{
	"B":   1,
	"KiB": 1024,
	"MiB": 1024 * 1024,
	"GiB": 1024 * 1024 * 1024,
	"TiB": 1024 * 1024 * 1024 * 1024,
}

// ParseSize converts a pacman size string such as "12.50 MiB" or "3,2 KiB"
// into bytes. The second return value is false when the size is unknown:
// the literal "Unknown", an empty string, an unexpected shape, an
// unparseable magnitude, or an unrecognized unit.
func ParseSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Unknown" {
		return 0, false
	}

	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, false
	}

	magnitude, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", "."), 64)
	if err != nil {
		return 0, false
	}

	multiplier, ok := sizeUnits[parts[1]]
	if !ok {
		return 0, false
	}

	return int64(magnitude * multiplier), true
}

// SizeDelta returns newSize minus currentSize in bytes, preserving the
// sign. It returns 0 when either side cannot be parsed.
func SizeDelta(currentSize, newSize string) int64 {
	cur, ok := ParseSize(currentSize)
	if !ok {
		return 0
	}
	next, ok := ParseSize(newSize)
	if !ok {
		return 0
	}
	return next - cur
}
