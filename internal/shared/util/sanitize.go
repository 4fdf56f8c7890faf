package util

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxFileNameLen = 255

// SanitizeFileName strips directories from an uploaded file name and rejects
// traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "\\", "/")
	s = filepath.Base(s)
	if s == "" || s == "." || s == "/" {
		return "", errors.New("invalid file name")
	}
	return truncateName(s, maxFileNameLen), nil
}

// truncateName cuts s to at most maxLen bytes on a rune boundary, keeping
// the extension when it fits.
func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	ext := filepath.Ext(s)
	if len(ext) >= maxLen {
		ext = ""
	}
	stem := strings.TrimSuffix(s, ext)
	limit := maxLen - len(ext)
	cut := 0
	for cut < len(stem) {
		_, size := utf8.DecodeRuneInString(stem[cut:])
		if cut+size > limit {
			break
		}
		cut += size
	}
	return stem[:cut] + ext
}
