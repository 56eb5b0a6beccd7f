package powershell

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxPasses bounds the repeated passes used to resolve nested expressions
const maxPasses = 100

// ReorderDeobfuscator resolves format-operator string reordering,
// e.g. ("{2}{0}{1}" -f 'str','ing','some') -> "somestring"
type ReorderDeobfuscator struct{}

// NewReorderDeobfuscator creates a new reordering deobfuscator
func NewReorderDeobfuscator() *ReorderDeobfuscator {
	return &ReorderDeobfuscator{}
}

// Name returns the deobfuscator name
func (d *ReorderDeobfuscator) Name() string {
	return "reorder"
}

// Description returns the menu label
func (d *ReorderDeobfuscator) Description() string {
	return "De-obfuscate PowerShell re-ordering"
}

// CanDeobfuscate checks if content contains a resolvable format expression
func (d *ReorderDeobfuscator) CanDeobfuscate(content string) bool {
	if !strings.Contains(content, "{") {
		return false
	}
	return rewrite(content, matchFormat) != content
}

// Deobfuscate expands every format expression with literal arguments
func (d *ReorderDeobfuscator) Deobfuscate(content string) (string, error) {
	return Reorder(content), nil
}

// Reorder expands TEMPLATE -f ARGS expressions into single literals.
// Inner expressions are resolved first, so nested reorderings collapse fully.
func Reorder(content string) string {
	return rewriteAll(content, matchFormat, maxPasses)
}

// matchFormat recognizes a format expression, optionally wrapped in parentheses
func matchFormat(s string, i int) (string, int, bool) {
	switch s[i] {
	case '(':
		// Parentheses after a word, index or subexpression sigil belong to a call
		if i > 0 && (isIdentByte(s[i-1]) || strings.IndexByte("$@])}", s[i-1]) >= 0) {
			return "", 0, false
		}
		j := skipSpace(s, i+1)
		repl, end, ok := parseFormat(s, j)
		if !ok {
			return "", 0, false
		}
		k := skipSpace(s, end)
		if k < len(s) && s[k] == ')' {
			return repl, k + 1, true
		}
		return "", 0, false
	case '\'', '"':
		return parseFormat(s, i)
	}
	return "", 0, false
}

// parseFormat parses TEMPLATE -f ARG[, ARG...] starting at s[i] and renders
// the result as one literal
func parseFormat(s string, i int) (repl string, end int, ok bool) {
	tmpl, ok := readLiteral(s, i)
	if !ok || !strings.Contains(tmpl.value, "{") {
		return "", 0, false
	}

	k := skipSpace(s, tmpl.end)
	if !isFormatOperator(s, k) {
		return "", 0, false
	}
	k = skipSpace(s, k+2)

	var args []literal
	end = k
	for {
		arg, argEnd, found := parseArg(s, k)
		if !found {
			if len(args) > 0 {
				// A comma followed by a non-literal argument: the list cannot be resolved
				return "", 0, false
			}
			break
		}
		args = append(args, arg)
		end = argEnd

		n := skipSpace(s, argEnd)
		if n >= len(s) || s[n] != ',' {
			break
		}
		k = skipSpace(s, n+1)
	}
	if len(args) == 0 {
		return "", 0, false
	}

	parts, ok := expandTemplate(tmpl, args)
	if !ok {
		return "", 0, false
	}
	return joinLiterals(parts), end, true
}

// isFormatOperator reports whether s[k:] starts with -f as a whole operator.
// -foo, -format, ... are other operators or parameters.
func isFormatOperator(s string, k int) bool {
	if k+1 >= len(s) || s[k] != '-' || (s[k+1] != 'f' && s[k+1] != 'F') {
		return false
	}
	return k+2 >= len(s) || !isIdentByte(s[k+2])
}

// parseArg parses one format argument: 'lit', ('lit') or [char]N
func parseArg(s string, i int) (literal, int, bool) {
	if i >= len(s) {
		return literal{}, 0, false
	}

	switch s[i] {
	case '\'', '"':
		lit, ok := readLiteral(s, i)
		if !ok {
			return literal{}, 0, false
		}
		return lit, lit.end, true
	case '(':
		j := skipSpace(s, i+1)
		lit, ok := readLiteral(s, j)
		if !ok {
			return literal{}, 0, false
		}
		k := skipSpace(s, lit.end)
		if k >= len(s) || s[k] != ')' {
			return literal{}, 0, false
		}
		return lit, k + 1, true
	case '[':
		r, end, ok := parseCharCast(s, i)
		if !ok {
			return literal{}, 0, false
		}
		// The character is taken verbatim
		return literal{quote: '\'', value: string(r)}, end, true
	}

	return literal{}, 0, false
}

// parseCharCast parses [char]N or [char]0xN starting at s[i]
func parseCharCast(s string, i int) (rune, int, bool) {
	const prefix = "[char]"
	if len(s)-i < len(prefix) || !strings.EqualFold(s[i:i+len(prefix)], prefix) {
		return 0, 0, false
	}
	j := i + len(prefix)
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}

	base := 10
	if j+1 < len(s) && s[j] == '0' && (s[j+1] == 'x' || s[j+1] == 'X') {
		base = 16
		j += 2
	}
	k := j
	for k < len(s) && isIdentByte(s[k]) {
		k++
	}
	if k == j {
		return 0, 0, false
	}

	n, err := strconv.ParseInt(s[j:k], base, 32)
	if err != nil || n <= 0 || !utf8.ValidRune(rune(n)) {
		return 0, 0, false
	}
	return rune(n), k, true
}

// expandTemplate substitutes {n} placeholders with args[n] in template order.
// The result alternates template text and arguments, each keeping its own
// quoting, and always starts with a template part.
func expandTemplate(tmpl literal, args []literal) ([]literal, bool) {
	var parts []literal
	var b strings.Builder
	placeholders := 0

	flush := func() {
		parts = append(parts, literal{quote: tmpl.quote, value: b.String()})
		b.Reset()
	}

	text := tmpl.value
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			// Alignment, format specs and malformed placeholders are not resolved
			if j == i+1 || j >= len(text) || text[j] != '}' {
				return nil, false
			}
			n, err := strconv.Atoi(text[i+1 : j])
			if err != nil || n >= len(args) {
				return nil, false
			}
			flush()
			parts = append(parts, args[n])
			placeholders++
			i = j
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return nil, false
		default:
			b.WriteByte(c)
		}
	}
	flush()

	return parts, placeholders > 0
}
