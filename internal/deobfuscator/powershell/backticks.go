package powershell

import "strings"

// BacktickDeobfuscator removes backtick escapes injected into tokens
type BacktickDeobfuscator struct{}

// NewBacktickDeobfuscator creates a new backtick remover
func NewBacktickDeobfuscator() *BacktickDeobfuscator {
	return &BacktickDeobfuscator{}
}

// Name returns the deobfuscator name
func (d *BacktickDeobfuscator) Name() string {
	return "backticks"
}

// Description returns the menu label
func (d *BacktickDeobfuscator) Description() string {
	return "Remove backticks"
}

// CanDeobfuscate checks if content contains backticks
func (d *BacktickDeobfuscator) CanDeobfuscate(content string) bool {
	return strings.Contains(content, "`")
}

// Deobfuscate removes every backtick
func (d *BacktickDeobfuscator) Deobfuscate(content string) (string, error) {
	return RemoveBackticks(content), nil
}

// RemoveBackticks deletes every backtick character. Applying it twice is a no-op.
func RemoveBackticks(content string) string {
	return strings.ReplaceAll(content, "`", "")
}
