package powershell

import (
	"encoding/base64"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
)

// Base64Deobfuscator decodes inline base64 payloads:
// [Text.Encoding]::X.GetString([Convert]::FromBase64String('...')) and -EncodedCommand arguments
type Base64Deobfuscator struct {
	getStringPattern *regexp.Regexp
	encodedPattern   *regexp.Regexp
}

// NewBase64Deobfuscator creates a new base64 deobfuscator
func NewBase64Deobfuscator() *Base64Deobfuscator {
	return &Base64Deobfuscator{
		getStringPattern: regexp.MustCompile(`(?i)\[(?:system\.)?text\.encoding\]::(utf8|unicode|ascii|default)\.getstring\(\s*\[(?:system\.)?convert\]::frombase64string\(\s*['"]([A-Za-z0-9+/=\s]+)['"]\s*\)\s*\)`),
		encodedPattern:   regexp.MustCompile(`(?i)(^|\s)-e(?:c|nc|ncodedcommand)?\s+['"]?([A-Za-z0-9+/]{8,}={0,2})['"]?`),
	}
}

// Name returns the deobfuscator name
func (d *Base64Deobfuscator) Name() string {
	return "base64"
}

// Description returns the menu label
func (d *Base64Deobfuscator) Description() string {
	return "Decode base64 payloads (FromBase64String, -EncodedCommand)"
}

// CanDeobfuscate checks if content contains a base64 payload pattern
func (d *Base64Deobfuscator) CanDeobfuscate(content string) bool {
	return d.getStringPattern.MatchString(content) || d.encodedPattern.MatchString(content)
}

// Deobfuscate replaces every decodable payload with a single-quoted literal
func (d *Base64Deobfuscator) Deobfuscate(content string) (string, error) {
	result := d.getStringPattern.ReplaceAllStringFunc(content, func(match string) string {
		submatches := d.getStringPattern.FindStringSubmatch(match)
		if len(submatches) < 3 {
			return match
		}

		decoded, ok := decodePayload(submatches[2], strings.EqualFold(submatches[1], "unicode"))
		if !ok {
			return match
		}
		return quoteLiteral(decoded, '\'')
	})

	result = d.encodedPattern.ReplaceAllStringFunc(result, func(match string) string {
		submatches := d.encodedPattern.FindStringSubmatch(match)
		if len(submatches) < 3 {
			return match
		}

		// -EncodedCommand is always UTF-16LE
		decoded, ok := decodePayload(submatches[2], true)
		if !ok {
			return match
		}
		return submatches[1] + "-Command " + quoteLiteral(decoded, '\'')
	})

	return result, nil
}

// decodePayload decodes base64 text as UTF-16LE or UTF-8 and rejects binary output
func decodePayload(encoded string, utf16 bool) (string, bool) {
	encoded = strings.Join(strings.Fields(encoded), "")
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return "", false
	}

	if utf16 {
		if len(raw)%2 != 0 {
			return "", false
		}
		raw, err = xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", false
		}
	}

	text := string(raw)
	if !utf8.ValidString(text) || !isPrintable(text) {
		return "", false
	}
	return text, true
}

// isPrintable reports whether text has no control characters other than whitespace
func isPrintable(text string) bool {
	for _, r := range text {
		if r == '\t' || r == '\r' || r == '\n' {
			continue
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return false
		}
	}
	return true
}
