package powershell

import (
	"fmt"

	"github.com/Justin-Lund/PS-Decode/internal/deobfuscator"
)

// RegisterBuiltins binds the built-in rules to their menu keys
func RegisterBuiltins(m *deobfuscator.Manager) error {
	auto := []struct {
		key string
		d   deobfuscator.Deobfuscator
	}{
		{"1", NewReorderDeobfuscator()},
		{"2", NewBacktickDeobfuscator()},
		{"3", NewConcatDeobfuscator()},
	}
	manual := []struct {
		key string
		d   deobfuscator.Deobfuscator
	}{
		{"4", NewLowercaseDeobfuscator()},
		{"5", NewSemicolonDeobfuscator()},
		{"6", NewTitleCaseDeobfuscator()},
	}

	for _, r := range auto {
		if err := m.Register(r.key, r.d); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.d.Name(), err)
		}
	}
	for _, r := range manual {
		if err := m.RegisterManual(r.key, r.d); err != nil {
			return fmt.Errorf("failed to register %s: %w", r.d.Name(), err)
		}
	}
	// Char codes feed reordering and concatenation, so auto mode runs them too
	if err := m.Register("7", NewCharCodeDeobfuscator()); err != nil {
		return fmt.Errorf("failed to register charcodes: %w", err)
	}
	// Decoded payloads may need review before the other rules touch them
	if err := m.RegisterManual("8", NewBase64Deobfuscator()); err != nil {
		return fmt.Errorf("failed to register base64: %w", err)
	}

	return nil
}
