package powershell

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordPattern matches identifier-like words, including :: separated type names
var wordPattern = regexp.MustCompile(`\b[a-zA-Z0-9_:]+\b`)

// letterRun matches runs of letters used for case analysis
var letterRun = regexp.MustCompile(`[A-Za-z]{3,}`)

// IsAlternatingCase reports whether word flips case often enough to look
// deliberately scrambled (wRiTe-HoSt) rather than camel or Pascal case.
func IsAlternatingCase(word string) bool {
	letters := 0
	switches := 0
	prevUpper := false
	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}
		upper := unicode.IsUpper(r)
		if letters > 0 && upper != prevUpper {
			switches++
		}
		prevUpper = upper
		letters++
	}
	return switches >= 3 && switches*2 >= letters
}

// CountAlternatingCase returns the number of scrambled-case words in content
func CountAlternatingCase(content string) int {
	n := 0
	for _, w := range letterRun.FindAllString(content, -1) {
		if IsAlternatingCase(w) {
			n++
		}
	}
	return n
}

// LowercaseDeobfuscator undoes aLtErNaTiNg case by lower-casing everything
type LowercaseDeobfuscator struct{}

// NewLowercaseDeobfuscator creates a new lowercase deobfuscator
func NewLowercaseDeobfuscator() *LowercaseDeobfuscator {
	return &LowercaseDeobfuscator{}
}

// Name returns the deobfuscator name
func (d *LowercaseDeobfuscator) Name() string {
	return "lowercase"
}

// Description returns the menu label
func (d *LowercaseDeobfuscator) Description() string {
	return "Undo aLtErNaTiNg cApS (lowercase everything)"
}

// CanDeobfuscate checks if content contains scrambled-case words
func (d *LowercaseDeobfuscator) CanDeobfuscate(content string) bool {
	return CountAlternatingCase(content) > 0
}

// Deobfuscate lower-cases the whole buffer
func (d *LowercaseDeobfuscator) Deobfuscate(content string) (string, error) {
	return Lowercase(content), nil
}

// Lowercase lower-cases the entire string, literals included
func Lowercase(content string) string {
	return strings.ToLower(content)
}

// TitleCaseDeobfuscator title-cases every word outside string literals
type TitleCaseDeobfuscator struct{}

// NewTitleCaseDeobfuscator creates a new title case deobfuscator
func NewTitleCaseDeobfuscator() *TitleCaseDeobfuscator {
	return &TitleCaseDeobfuscator{}
}

// Name returns the deobfuscator name
func (d *TitleCaseDeobfuscator) Name() string {
	return "titlecase"
}

// Description returns the menu label
func (d *TitleCaseDeobfuscator) Description() string {
	return "Undo aLtErNaTiNg cApS (Title Case code)"
}

// CanDeobfuscate checks if content contains scrambled-case words
func (d *TitleCaseDeobfuscator) CanDeobfuscate(content string) bool {
	return CountAlternatingCase(content) > 0
}

// Deobfuscate title-cases words in code, leaving literals untouched
func (d *TitleCaseDeobfuscator) Deobfuscate(content string) (string, error) {
	return TitleCase(content), nil
}

// TitleCase turns wRiTe-hOsT into Write-Host outside string literals
func TitleCase(content string) string {
	caser := cases.Title(language.Und)
	return mapCode(content, func(code string) string {
		return wordPattern.ReplaceAllStringFunc(code, caser.String)
	})
}
