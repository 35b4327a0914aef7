package rendezvous

import (
	"strings"
	"unicode"
)

const logPrefixLen = 12

// Normalize removes all the whitespace characters from the peer identifier.
func Normalize(identifier string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, identifier)
}

// short returns the prefix of the identifier used in logs.
func short(identifier string) string {
	if len(identifier) <= logPrefixLen {
		return identifier
	}
	return identifier[:logPrefixLen] + "..."
}
