package scanner

import "strings"

// asciiSpace marks the byte values treated as whitespace, the ASCII set
// bufio and strings use. Normalization is byte-oriented; multibyte
// characters pass through untouched.
var asciiSpace = [256]uint8{'\t': 1, '\n': 1, '\v': 1, '\f': 1, '\r': 1, ' ': 1}

// NormalizeToken canonicalizes one raw input line: leading whitespace is
// stripped, each interior whitespace run collapses to its first character,
// and one trailing whitespace character is dropped. A run that starts with
// a tab therefore stays a tab. Lines that normalize to "" are not tokens.
func NormalizeToken(line string) string {
	var b strings.Builder
	b.Grow(len(line))

	prevSpace := true // swallows leading whitespace
	for i := 0; i < len(line); i++ {
		c := line[i]
		if asciiSpace[c] == 1 {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteByte(c)
	}

	s := b.String()
	if len(s) > 0 && asciiSpace[s[len(s)-1]] == 1 {
		s = s[:len(s)-1]
	}
	return s
}
