package analysis

import (
	"math"
)

// EntropyThresholds for PowerShell content
const (
	EntropyNormalScript  = 4.8 // Hand-written PowerShell
	EntropyObfuscated    = 5.5 // Likely obfuscated
	EntropyHighlyEncoded = 6.0 // Base64 / encrypted payloads
)

// chunkSize is the window used for localized entropy
const chunkSize = 512

// CalculateEntropy calculates Shannon entropy of a string
// Returns value between 0 (uniform) and 8 (maximum randomness for bytes)
func CalculateEntropy(data string) float64 {
	if len(data) == 0 {
		return 0
	}

	// Count byte frequencies
	var freq [256]int
	for i := 0; i < len(data); i++ {
		freq[data[i]]++
	}

	length := float64(len(data))
	var entropy float64

	for _, count := range freq {
		if count > 0 {
			p := float64(count) / length
			entropy -= p * math.Log2(p)
		}
	}

	return entropy
}

// CalculateEntropyForChunks calculates entropy for chunks of data
func CalculateEntropyForChunks(data string, size int) []float64 {
	if len(data) == 0 || size <= 0 {
		return nil
	}

	var results []float64
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		results = append(results, CalculateEntropy(data[i:end]))
	}

	return results
}

// EntropyAnalysis contains entropy analysis results
type EntropyAnalysis struct {
	Overall float64 // Overall entropy
	Max     float64 // Maximum chunk entropy
	Average float64 // Average chunk entropy
}

// AnalyzeEntropy computes overall and per-chunk entropy
func AnalyzeEntropy(data string) EntropyAnalysis {
	if len(data) == 0 {
		return EntropyAnalysis{}
	}

	analysis := EntropyAnalysis{
		Overall: CalculateEntropy(data),
	}

	chunks := CalculateEntropyForChunks(data, chunkSize)
	var sum float64
	for _, e := range chunks {
		sum += e
		if e > analysis.Max {
			analysis.Max = e
		}
	}
	analysis.Average = sum / float64(len(chunks))

	return analysis
}

// Level classifies the analysis against the entropy thresholds
func (a EntropyAnalysis) Level() string {
	switch {
	case a.Max > EntropyHighlyEncoded:
		return "encoded"
	case a.Overall > EntropyObfuscated:
		return "obfuscated"
	case a.Overall > EntropyNormalScript:
		return "elevated"
	default:
		return "normal"
	}
}
