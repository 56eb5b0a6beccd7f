package powershell

import (
	"strings"
)

// literal is a quoted string literal located in the source
type literal struct {
	quote byte   // ' or "
	value string // content with quote escapes resolved; other backtick escapes kept raw
	start int
	end   int // exclusive
}

// span is a run of source that is either code or opaque text
// (string literal, comment, here-string)
type span struct {
	text string
	code bool
}

// matcher recognizes a construct at s[i]. On success it returns the
// replacement text and the index just past the matched construct.
type matcher func(s string, i int) (repl string, end int, ok bool)

// readLiteral parses a single- or double-quoted literal starting at s[i]
func readLiteral(s string, i int) (literal, bool) {
	if i >= len(s) {
		return literal{}, false
	}
	q := s[i]
	if q != '\'' && q != '"' {
		return literal{}, false
	}

	var b strings.Builder
	j := i + 1
	for j < len(s) {
		c := s[j]
		switch {
		case c == q:
			if j+1 < len(s) && s[j+1] == q {
				b.WriteByte(q)
				j += 2
				continue
			}
			return literal{quote: q, value: b.String(), start: i, end: j + 1}, true
		case c == '`' && q == '"':
			if j+1 >= len(s) {
				return literal{}, false
			}
			if s[j+1] == '"' {
				b.WriteByte('"')
			} else {
				b.WriteByte('`')
				b.WriteByte(s[j+1])
			}
			j += 2
		default:
			b.WriteByte(c)
			j++
		}
	}

	// Unterminated
	return literal{}, false
}

// quoteLiteral renders value as a literal delimited by quote
func quoteLiteral(value string, quote byte) string {
	q := string(quote)
	return q + strings.ReplaceAll(value, q, q+q) + q
}

// skipSpace returns the index of the first non-blank byte at or after i.
// Newlines and backtick line continuations count as blank, so constructs
// may be split across lines.
func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '`':
			switch {
			case strings.HasPrefix(s[i+1:], "\n"):
				i += 2
			case strings.HasPrefix(s[i+1:], "\r\n"):
				i += 3
			default:
				return i
			}
		default:
			return i
		}
	}
	return i
}

// isIdentByte reports whether c can be part of a bare word
func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// skipOpaque returns the end of a comment or here-string starting at s[i]
func skipOpaque(s string, i int) (int, bool) {
	c := s[i]

	// Block comment
	if c == '<' && i+1 < len(s) && s[i+1] == '#' {
		if end := strings.Index(s[i+2:], "#>"); end >= 0 {
			return i + 2 + end + 2, true
		}
		return len(s), true
	}

	// Line comment only at token start
	if c == '#' && (i == 0 || strings.IndexByte(" \t\r\n;(){}|", s[i-1]) >= 0) {
		if end := strings.IndexByte(s[i:], '\n'); end >= 0 {
			return i + end, true
		}
		return len(s), true
	}

	// Here-string: @' or @" followed by a line break
	if c == '@' && i+2 < len(s) && (s[i+1] == '\'' || s[i+1] == '"') {
		q := s[i+1]
		body := i + 2
		if s[body] == '\r' && body+1 < len(s) {
			body++
		}
		if s[body] != '\n' {
			return 0, false
		}
		if end := strings.Index(s[body:], "\n"+string(q)+"@"); end >= 0 {
			return body + end + 3, true
		}
	}

	return 0, false
}

// spans splits s into alternating code and opaque runs
func spans(s string) []span {
	var out []span
	start := 0
	i := 0

	flush := func(end int) {
		if end > start {
			out = append(out, span{text: s[start:end], code: true})
		}
	}

	for i < len(s) {
		if s[i] == '`' {
			// Escaped character in code
			i += 2
			continue
		}
		end, ok := skipOpaque(s, i)
		if !ok {
			if lit, found := readLiteral(s, i); found {
				end, ok = lit.end, true
			}
		}
		if ok {
			flush(i)
			out = append(out, span{text: s[i:end], code: false})
			i = end
			start = i
			continue
		}
		i++
	}
	if start < len(s) {
		out = append(out, span{text: s[start:], code: true})
	}

	return out
}

// mapCode applies f to every code span, leaving literals and comments intact
func mapCode(s string, f func(code string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, sp := range spans(s) {
		if sp.code {
			b.WriteString(f(sp.text))
		} else {
			b.WriteString(sp.text)
		}
	}
	return b.String()
}

// rewrite walks s and replaces every construct recognized by m.
// Comments, here-strings and unmatched literals are copied through.
func rewrite(s string, m matcher) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] == '`' && i+1 < len(s) {
			b.WriteString(s[i : i+2])
			i += 2
			continue
		}
		if end, ok := skipOpaque(s, i); ok {
			b.WriteString(s[i:end])
			i = end
			continue
		}
		if repl, end, ok := m(s, i); ok {
			b.WriteString(repl)
			i = end
			continue
		}
		if lit, ok := readLiteral(s, i); ok {
			b.WriteString(s[lit.start:lit.end])
			i = lit.end
			continue
		}
		b.WriteByte(s[i])
		i++
	}

	return b.String()
}

// rewriteAll repeats rewrite until the text stops changing or limit passes ran
func rewriteAll(s string, m matcher, limit int) string {
	for pass := 0; pass < limit; pass++ {
		next := rewrite(s, m)
		if next == s {
			break
		}
		s = next
	}
	return s
}
