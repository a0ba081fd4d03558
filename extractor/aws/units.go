package aws

import (
	"math"
	"strconv"
	"strings"
)

// ParseMemoryGiB converts catalog memory text such as "8 GiB", "12,288 MiB"
// or a bare number into GiB. The second result is false when the text is
// empty or cannot be read as a finite quantity.
func ParseMemoryGiB(text string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(text, ",", "")))
	if s == "" {
		return 0, false
	}
	if n, _, ok := strings.Cut(s, "gib"); ok {
		return parseFinite(n)
	}
	if n, _, ok := strings.Cut(s, "mib"); ok {
		v, ok := parseFinite(n)
		if !ok {
			return 0, false
		}
		return v / 1024, true
	}
	return parseFinite(s)
}

// ParseCount reads a bare numeric attribute such as vcpu.
func ParseCount(text string) (float64, bool) {
	return parseFinite(text)
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
