package utils

import (
	"strconv"
)

// StringToInt converts s to an int, returning def if s is empty or invalid.
func StringToInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// StringToUint parses a positive id.
func StringToUint(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
