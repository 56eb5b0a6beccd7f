package powershell

import "strings"

// SemicolonDeobfuscator breaks one-liners into one statement per line
type SemicolonDeobfuscator struct{}

// NewSemicolonDeobfuscator creates a new statement splitter
func NewSemicolonDeobfuscator() *SemicolonDeobfuscator {
	return &SemicolonDeobfuscator{}
}

// Name returns the deobfuscator name
func (d *SemicolonDeobfuscator) Name() string {
	return "semicolons"
}

// Description returns the menu label
func (d *SemicolonDeobfuscator) Description() string {
	return "New lines at semicolons"
}

// CanDeobfuscate checks if content has statements sharing a line
func (d *SemicolonDeobfuscator) CanDeobfuscate(content string) bool {
	if !strings.Contains(content, ";") {
		return false
	}
	return SplitStatements(content) != content
}

// Deobfuscate inserts line breaks after statement separators
func (d *SemicolonDeobfuscator) Deobfuscate(content string) (string, error) {
	return SplitStatements(content), nil
}

// SplitStatements puts a newline after every ; that separates statements.
// Semicolons inside literals, comments and parentheses (for loops) are kept.
func SplitStatements(content string) string {
	parts := spans(content)

	var b strings.Builder
	b.Grow(len(content) + len(content)/16)
	depth := 0

	for idx, sp := range parts {
		if !sp.code {
			b.WriteString(sp.text)
			continue
		}
		last := idx == len(parts)-1

		text := sp.text
		for i := 0; i < len(text); i++ {
			c := text[i]
			switch c {
			case '`':
				b.WriteByte(c)
				if i+1 < len(text) {
					i++
					b.WriteByte(text[i])
				}
				continue
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			}
			b.WriteByte(c)
			if c != ';' || depth > 0 {
				continue
			}

			j := i + 1
			for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
				j++
			}
			if j < len(text) && (text[j] == '\n' || text[j] == '\r') {
				continue
			}
			if j == len(text) && last {
				continue
			}
			b.WriteByte('\n')
			i = j - 1
		}
	}

	return b.String()
}
