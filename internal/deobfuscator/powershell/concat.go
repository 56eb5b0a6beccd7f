package powershell

import "strings"

// ConcatDeobfuscator merges string literals split with the + operator
type ConcatDeobfuscator struct{}

// NewConcatDeobfuscator creates a new concatenation deobfuscator
func NewConcatDeobfuscator() *ConcatDeobfuscator {
	return &ConcatDeobfuscator{}
}

// Name returns the deobfuscator name
func (d *ConcatDeobfuscator) Name() string {
	return "concat"
}

// Description returns the menu label
func (d *ConcatDeobfuscator) Description() string {
	return "Re-concatenate strings"
}

// CanDeobfuscate checks if content contains joined literals
func (d *ConcatDeobfuscator) CanDeobfuscate(content string) bool {
	if !strings.Contains(content, "+") {
		return false
	}
	return rewrite(content, matchConcat) != content
}

// Deobfuscate merges every run of joined literals
func (d *ConcatDeobfuscator) Deobfuscate(content string) (string, error) {
	return Concatenate(content), nil
}

// Concatenate merges 'ab' + 'cd' + 'ef' into 'abcdef'
func Concatenate(content string) string {
	return rewrite(content, matchConcat)
}

// matchConcat recognizes two or more literals joined by +
func matchConcat(s string, i int) (string, int, bool) {
	if s[i] != '\'' && s[i] != '"' {
		return "", 0, false
	}
	// '{0}' -f 'a' + 'b', 2 * 'a' + 'b': the first literal belongs to the left operator
	if bindsLeft(s, i) {
		return "", 0, false
	}
	first, ok := readLiteral(s, i)
	if !ok {
		return "", 0, false
	}

	parts := []literal{first}
	for {
		last := parts[len(parts)-1]
		n := skipSpace(s, last.end)
		if n >= len(s) || s[n] != '+' {
			break
		}
		m := skipSpace(s, n+1)
		next, found := readLiteral(s, m)
		if !found {
			break
		}
		parts = append(parts, next)
	}

	// 'a' + 'b'.Length, 'a' + 'b' * 2: the last literal belongs to the right operator
	if bindsRight(s, parts[len(parts)-1].end) {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return "", 0, false
	}

	return joinLiterals(parts), parts[len(parts)-1].end, true
}

// bindsRight reports whether the operand ending at end is taken by an operator
// that binds tighter than +: member access, indexing, -f, * / % or the comma
func bindsRight(s string, end int) bool {
	if end < len(s) && (s[end] == '.' || s[end] == '[') {
		return true
	}
	k := skipSpace(s, end)
	if k >= len(s) {
		return false
	}
	switch s[k] {
	case '*', '/', '%', ',':
		return true
	case '-':
		return isFormatOperator(s, k)
	}
	return false
}

// bindsLeft reports whether the operand starting at start is taken by a
// preceding operator that binds tighter than +
func bindsLeft(s string, start int) bool {
	k := start - 1
	for k >= 0 {
		blank := strings.IndexByte(" \t\r\n", s[k]) >= 0
		continuation := s[k] == '`' && k+1 < len(s) && (s[k+1] == '\r' || s[k+1] == '\n')
		if !blank && !continuation {
			break
		}
		k--
	}
	if k < 0 {
		return false
	}
	switch s[k] {
	case '*', '/', '%', ',':
		return true
	case 'f', 'F':
		return k > 0 && s[k-1] == '-' && isFormatOperator(s, k-1)
	}
	return false
}

// joinLiterals renders parts as one literal, quoted like the first part.
// Double quotes win when a double-quoted part relies on expansion or escapes.
func joinLiterals(parts []literal) string {
	quote := parts[0].quote
	if quote == '\'' {
		for _, p := range parts[1:] {
			if p.quote == '"' && strings.ContainsAny(p.value, "$`") {
				quote = '"'
				break
			}
		}
	}

	var b strings.Builder
	for _, p := range parts {
		v := p.value
		if quote == '"' && p.quote == '\'' {
			v = strings.NewReplacer("`", "``", "$", "`$").Replace(v)
		}
		b.WriteString(v)
	}
	return quoteLiteral(b.String(), quote)
}
