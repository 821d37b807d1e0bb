package dxgrid

import (
	"sort"
	"strings"
)

// SortNatural sorts paths in natural order: runs of digits compare by
// numeric value, so grid_2.dx sorts before grid_10.dx.
func SortNatural(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return NaturalLess(paths[i], paths[j])
	})
}

// NaturalLess reports whether a sorts before b in natural order. Strings
// are compared chunk by chunk, where a chunk is a maximal run of digits
// or of non-digits. Digit chunks compare numerically and sort before
// non-digit chunks; equal chunks defer to the next.
func NaturalLess(a, b string) bool {
	for a != "" && b != "" {
		ac, aNum, aRest := chunk(a)
		bc, bNum, bRest := chunk(b)

		switch {
		case aNum && bNum:
			if c := compareNumeric(ac, bc); c != 0 {
				return c < 0
			}
		case aNum != bNum:
			return aNum
		default:
			if ac != bc {
				return ac < bc
			}
		}
		a, b = aRest, bRest
	}
	return a == "" && b != ""
}

// chunk splits off the leading maximal run of digits or non-digits.
func chunk(s string) (part string, numeric bool, rest string) {
	numeric = isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == numeric {
		i++
	}
	return s[:i], numeric, s[i:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// compareNumeric compares two digit runs by value. Leading zeros are
// insignificant, so comparing trimmed lengths settles most cases without
// integer conversion, which also keeps arbitrarily long runs safe.
func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	return strings.Compare(ta, tb)
}
