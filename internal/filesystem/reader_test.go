package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"Bytes", "100", 100},
		{"Kilobytes", "1K", 1024},
		{"Kilobytes lowercase", "1k", 1024},
		{"Megabytes", "1M", 1024 * 1024},
		{"Megabytes lowercase", "1m", 1024 * 1024},
		{"Gigabytes", "1G", 1024 * 1024 * 1024},
		{"Multiple MB", "10M", 10 * 1024 * 1024},
		{"Invalid format", "abc", 0},
		{"Empty string", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseSize(tt.input); got != tt.expected {
				t.Errorf("ParseSize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestReadScript(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.ps1")
	testContent := "wRiTe-HoSt ('{1}{0}' -f 'lo','Hel')\n"

	if err := os.WriteFile(testFile, []byte(testContent), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	script, err := ReadScript(testFile, 0)
	if err != nil {
		t.Fatalf("ReadScript() error = %v", err)
	}

	if script.Content != testContent {
		t.Errorf("Content = %q, want %q", script.Content, testContent)
	}
	if script.Name != "test.ps1" {
		t.Errorf("Name = %q, want %q", script.Name, "test.ps1")
	}
	if script.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want %q", script.Encoding, "utf-8")
	}
	if len(script.Hash) != 8 {
		t.Errorf("Hash = %q, want 8 hex chars", script.Hash)
	}
}

func TestReadScript_NonExistent(t *testing.T) {
	_, err := ReadScript("/nonexistent/file.ps1", 0)
	if err == nil {
		t.Fatal("ReadScript() expected error for non-existent file, got nil")
	}
	if !strings.Contains(err.Error(), "file not found") {
		t.Errorf("error = %v, want 'file not found'", err)
	}
}

func TestReadScript_Directory(t *testing.T) {
	if _, err := ReadScript(t.TempDir(), 0); err == nil {
		t.Error("ReadScript() expected error for directory, got nil")
	}
}

func TestReadScript_TooLarge(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "big.ps1")
	if err := os.WriteFile(testFile, []byte(strings.Repeat("a", 2048)), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := ReadScript(testFile, ParseSize("1K")); err == nil {
		t.Error("ReadScript() expected size error, got nil")
	}
	if _, err := ReadScript(testFile, ParseSize("4K")); err != nil {
		t.Errorf("ReadScript() error = %v within limit", err)
	}
}

func TestReadScript_EmptyFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "empty.ps1")
	if err := os.WriteFile(testFile, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	script, err := ReadScript(testFile, 0)
	if err != nil {
		t.Fatalf("ReadScript() error = %v", err)
	}
	if script.Content != "" {
		t.Errorf("Content = %q, want empty", script.Content)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      []byte
		expected string
		encoding string
	}{
		{
			name:     "Plain UTF-8",
			raw:      []byte("iex 'é'"),
			expected: "iex 'é'",
			encoding: "utf-8",
		},
		{
			name:     "UTF-8 with BOM",
			raw:      append([]byte{0xEF, 0xBB, 0xBF}, []byte("iex")...),
			expected: "iex",
			encoding: "utf-8",
		},
		{
			name:     "UTF-16LE with BOM",
			raw:      []byte{0xFF, 0xFE, 'i', 0, 'e', 0, 'x', 0},
			expected: "iex",
			encoding: "utf-16le",
		},
		{
			name:     "UTF-16BE with BOM",
			raw:      []byte{0xFE, 0xFF, 0, 'i', 0, 'e', 0, 'x'},
			expected: "iex",
			encoding: "utf-16be",
		},
		{
			name:     "Windows-1252",
			raw:      []byte{'c', 'a', 'f', 0xE9},
			expected: "café",
			encoding: "windows-1252",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, encoding, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("Decode() = %q, want %q", got, tt.expected)
			}
			if encoding != tt.encoding {
				t.Errorf("encoding = %q, want %q", encoding, tt.encoding)
			}
		})
	}
}

func TestWriteScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ps1")

	// Existing content is replaced, not merged
	if err := os.WriteFile(path, []byte("old content that is longer"), 0644); err != nil {
		t.Fatal(err)
	}

	content := "Write-Host 'x'\r\n\t`n"
	if err := WriteScript(path, content); err != nil {
		t.Fatalf("WriteScript() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("written = %q, want %q", data, content)
	}
}

func TestWriteScript_BadPath(t *testing.T) {
	if err := WriteScript(filepath.Join(t.TempDir(), "missing", "out.ps1"), "x"); err == nil {
		t.Error("WriteScript() expected error for missing directory, got nil")
	}
}
