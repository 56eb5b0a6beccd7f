package powershell

import (
	"regexp"
)

// CharCodeDeobfuscator replaces [char]N casts with the character they produce
type CharCodeDeobfuscator struct {
	castPattern *regexp.Regexp
}

// NewCharCodeDeobfuscator creates a new char code deobfuscator
func NewCharCodeDeobfuscator() *CharCodeDeobfuscator {
	return &CharCodeDeobfuscator{
		castPattern: regexp.MustCompile(`(?i)\[char\][ \t]*(0x[0-9a-f]+|\d+)`),
	}
}

// Name returns the deobfuscator name
func (d *CharCodeDeobfuscator) Name() string {
	return "charcodes"
}

// Description returns the menu label
func (d *CharCodeDeobfuscator) Description() string {
	return "Decode [char] codes"
}

// CanDeobfuscate checks if content contains [char] casts outside literals
func (d *CharCodeDeobfuscator) CanDeobfuscate(content string) bool {
	if !d.castPattern.MatchString(content) {
		return false
	}
	for _, sp := range spans(content) {
		if sp.code && d.castPattern.MatchString(sp.text) {
			return true
		}
	}
	return false
}

// Deobfuscate replaces every decodable cast with a quoted character
func (d *CharCodeDeobfuscator) Deobfuscate(content string) (string, error) {
	return mapCode(content, func(code string) string {
		return d.castPattern.ReplaceAllStringFunc(code, func(match string) string {
			r, _, ok := parseCharCast(match, 0)
			if !ok {
				return match
			}
			return quoteLiteral(string(r), '\'')
		})
	}), nil
}

// DecodeCharCodes replaces [char]65 with 'A'
func DecodeCharCodes(content string) string {
	result, _ := NewCharCodeDeobfuscator().Deobfuscate(content)
	return result
}
