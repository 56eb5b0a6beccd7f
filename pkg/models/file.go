package models

import (
	"time"
)

// Script represents a loaded PowerShell script
type Script struct {
	Path     string    // Full file path
	Name     string    // File name
	Size     int64     // Size on disk in bytes
	ModTime  time.Time // Modification time
	Encoding string    // Detected source encoding (utf-8, utf-16le, windows-1252, ...)
	Hash     string    // CRC32 of the raw bytes
	Content  string    // Decoded UTF-8 content
}
