package analysis

import (
	"regexp"
	"strings"

	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator/powershell"
)

var (
	concatPattern   = regexp.MustCompile(`['"]\s*\+\s*['"]`)
	formatPattern   = regexp.MustCompile(`(?i)['"]\s*-f\s*['"(\[]`)
	charCastPattern = regexp.MustCompile(`(?i)\[char\]\s*(0x[0-9a-f]+|\d+)`)
)

// Report summarizes obfuscation indicators in a buffer
type Report struct {
	Size          int
	Lines         int
	Entropy       EntropyAnalysis
	Backticks     int
	Concatenation int // literal + literal joins
	FormatOps     int // 'template' -f ... expressions
	CharCasts     int
	AltCaseWords  int
}

// Inspect scans content for the indicators each rule targets
func Inspect(content string) *Report {
	r := &Report{
		Size:          len(content),
		Entropy:       AnalyzeEntropy(content),
		Backticks:     strings.Count(content, "`"),
		Concatenation: len(concatPattern.FindAllStringIndex(content, -1)),
		FormatOps:     len(formatPattern.FindAllStringIndex(content, -1)),
		CharCasts:     len(charCastPattern.FindAllStringIndex(content, -1)),
		AltCaseWords:  powershell.CountAlternatingCase(content),
	}
	if content != "" {
		r.Lines = strings.Count(content, "\n") + 1
		if strings.HasSuffix(content, "\n") {
			r.Lines--
		}
	}
	return r
}

// Indicators returns the total count of obfuscation markers
func (r *Report) Indicators() int {
	return r.Backticks + r.Concatenation + r.FormatOps + r.CharCasts + r.AltCaseWords
}

// IsLikelyObfuscated combines entropy with indicator density
func (r *Report) IsLikelyObfuscated() bool {
	if r.Entropy.Overall > EntropyObfuscated || r.Entropy.Max > EntropyHighlyEncoded {
		return true
	}
	if r.Lines == 0 {
		return false
	}
	return r.Indicators() >= r.Lines
}
