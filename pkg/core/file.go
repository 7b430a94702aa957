package core

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// FileRecord identifies one tracked workbook.
type FileRecord struct {
	ID         int64     `json:"file_id"`
	LocalPath  string    `json:"local_path"`
	PathHash   string    `json:"local_path_hash"`
	OnlineURL  string    `json:"online_url,omitempty"`
	SheetNames []string  `json:"sheet_names"`
	Embed      string    `json:"embed,omitempty"`
	FileType   string    `json:"file_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasSheet reports whether the workbook had a sheet with the given name
// when it was registered.
func (f *FileRecord) HasSheet(name string) bool {
	for _, s := range f.SheetNames {
		if s == name {
			return true
		}
	}
	return false
}

// NormalizePath removes cosmetic differences from a user-supplied path:
// surrounding whitespace, double quotes (as pasted from "Copy as path"),
// Unicode composition and redundant separators.
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, `"`, "")
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = norm.NFC.String(p)
	return filepath.Clean(p)
}

// PathHash returns the hex SHA-256 of the normalized path.
func PathHash(path string) string {
	sum := sha256.Sum256([]byte(NormalizePath(path)))
	return hex.EncodeToString(sum[:])
}

// FileType returns the lower-case extension of path without the dot.
func FileType(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(NormalizePath(path))), ".")
}
