package matcher

import (
	"unicode"
	"unicode/utf8"
)

// NamesMatch compares a declared name with a requested one ignoring case.
// The requested name may contain '-' and '_' that have no counterpart in
// the declared name: IsLunchTime matches is_lunch-time. Case folding is
// the Unicode simple folding, it does not depend on a locale.
func NamesMatch(declared, requested string) bool {
	j := 0
	for _, c := range declared {
		for {
			if j >= len(requested) {
				return false
			}
			r, size := utf8.DecodeRuneInString(requested[j:])
			j += size
			if foldEqual(r, c) {
				break
			}
			if !isSeparator(r) {
				return false
			}
		}
	}
	for j < len(requested) {
		r, size := utf8.DecodeRuneInString(requested[j:])
		if !isSeparator(r) {
			return false
		}
		j += size
	}
	return true
}

func isSeparator(r rune) bool { return r == '-' || r == '_' }

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
