package common

import (
	"math"
	"strconv"
	"strings"
)

// AtoiDefault converts the provided string to an integer falling back to the default when parsing fails.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// ParseAmount leniently converts a raw form value into a monetary amount in
// minor units. Empty or non-numeric input yields 0 rather than an error: the
// billing form treats blank discount/cash fields as zero. Fractional input is
// rounded half away from zero.
func ParseAmount(value string) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if !strings.Contains(trimmed, ".") {
		parsed, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f))
}

// ParseOptionalID parses a selection value into an optional identifier. An
// empty or malformed value means no selection and maps to nil, not an error.
func ParseOptionalID(value string) *int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
