package filesystem

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/Justin-Lund/PS-Decode/pkg/models"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadScript reads a script and decodes it to UTF-8. maxSize <= 0 disables the size limit.
func ReadScript(path string, maxSize int64) (*models.Script, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("not a file: %s", path)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("file too large: %s (%d bytes, limit %d)", path, info.Size(), maxSize)
	}

	// Read file content
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	content, enc, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &models.Script{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
		Encoding: enc,
		Hash:     calculateHash(raw),
		Content:  content,
	}, nil
}

// Decode detects the encoding of raw and converts it to UTF-8.
// A byte order mark wins; otherwise content is sniffed as UTF-8 or Windows-1252.
func Decode(raw []byte) (string, string, error) {
	enc, name, certain := charset.DetermineEncoding(raw, "text/plain")
	if !certain && utf8.Valid(raw) {
		// Plain ASCII sniffs as windows-1252; report it as UTF-8
		enc, name = encoding.Nop, "utf-8"
	}

	decoded, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), raw)
	if err != nil {
		return "", name, err
	}

	return string(decoded), name, nil
}

// WriteScript writes content to path byte-for-byte, replacing any existing file
func WriteScript(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// calculateHash calculates CRC32 hash of content
func calculateHash(content []byte) string {
	crc := crc32.ChecksumIEEE(content)
	return fmt.Sprintf("%08x", crc)
}

// ParseSize parses size string (e.g., "650K", "1M") to bytes
func ParseSize(sizeStr string) int64 {
	if len(sizeStr) == 0 {
		return 0
	}

	// Get last character (unit)
	last := sizeStr[len(sizeStr)-1]
	var multiplier int64 = 1

	switch last {
	case 'K', 'k':
		multiplier = 1024
		sizeStr = sizeStr[:len(sizeStr)-1]
	case 'M', 'm':
		multiplier = 1024 * 1024
		sizeStr = sizeStr[:len(sizeStr)-1]
	case 'G', 'g':
		multiplier = 1024 * 1024 * 1024
		sizeStr = sizeStr[:len(sizeStr)-1]
	}

	// Parse number
	var size int64
	fmt.Sscanf(sizeStr, "%d", &size)

	return size * multiplier
}
