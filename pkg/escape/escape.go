// Package escape neutralizes markup-significant characters in user and server
// supplied strings before they are stored or interpolated into markup.
package escape

import "strings"

// Func is the escaper signature consumed by the form controller.
type Func func(string) string

// HTML escapes <, >, ", ' and any & that does not already start a character
// reference. Escaping an escaped string returns it unchanged, so values read
// back from storage can be passed through again without double escaping.
func HTML(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			if n := referenceLen(s[i:]); n > 0 {
				b.WriteString(s[i : i+n])
				i += n - 1
				continue
			}
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&#34;")
		case '\'':
			b.WriteString("&#39;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// referenceLen returns the length of the character reference at the start of
// s (named, decimal or hexadecimal, terminated by ';') or 0 when s does not
// start with one.
func referenceLen(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}

	i := 1
	switch {
	case s[i] == '#':
		i++
		hex := i < len(s) && (s[i] == 'x' || s[i] == 'X')
		if hex {
			i++
		}
		start := i
		for i < len(s) && (isDigit(s[i]) || (hex && isHexLetter(s[i]))) {
			i++
		}
		if i == start {
			return 0
		}
	case isLetter(s[i]):
		for i < len(s) && (isLetter(s[i]) || isDigit(s[i])) {
			i++
		}
	default:
		return 0
	}

	if i >= len(s) || s[i] != ';' {
		return 0
	}
	return i + 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isHexLetter(c byte) bool { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
