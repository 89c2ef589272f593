package kv

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrayIndex encodes a non-negative array position the way the configuration store
// names array elements: '#', one '_' per digit after the first, then the digits.
// Encoded indices of equal digit count sort like the numbers they encode, and
// a longer number always gets a longer run of '_'.
//
//	0 -> #0, 9 -> #9, 10 -> #_10, 100 -> #__100
func ArrayIndex(i int) string {
	if i < 0 {
		panic(fmt.Sprintf("kv: negative array index %d", i))
	}
	digits := strconv.Itoa(i)
	return "#" + strings.Repeat("_", len(digits)-1) + digits
}

// ParseArrayIndex is the inverse of ArrayIndex. It rejects fragments that
// ArrayIndex would never produce, such as "#01" or "#_5".
func ParseArrayIndex(s string) (int, error) {
	if !strings.HasPrefix(s, "#") {
		return 0, fmt.Errorf("array index %q: missing '#'", s)
	}
	rest := s[1:]
	digits := strings.TrimLeft(rest, "_")
	filler := len(rest) - len(digits)
	if digits == "" || len(digits) != filler+1 {
		return 0, fmt.Errorf("array index %q: expected %d digits", s, filler+1)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("array index %q: not a number", s)
		}
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("array index %q: leading zero", s)
	}
	return strconv.Atoi(digits)
}
