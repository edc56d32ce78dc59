package client

import (
	"math"
	"strings"
	"unicode"
)

// ParsePrice reads a price the way a browser's parseInt does: skip leading whitespace,
// accept an optional sign and read leading digits ("0x" selects hex), ignoring the rest.
// It returns nil when no digits are found or the value does not fit in an int; callers
// send nil as JSON null and leave rejection to the backend.
func ParsePrice(s string) *int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	var n uint64
	digits := 0
	for _, r := range s {
		d := digitVal(r)
		if d < 0 || d >= base {
			break
		}
		if n > (math.MaxInt64-uint64(d))/uint64(base) {
			return nil
		}
		n = n*uint64(base) + uint64(d)
		digits++
	}
	if digits == 0 {
		return nil
	}
	v := int(n)
	if neg {
		v = -v
	}
	return &v
}

func digitVal(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'f':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'F':
		return int(r-'A') + 10
	default:
		return -1
	}
}
