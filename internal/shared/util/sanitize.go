package util

import (
	"errors"
	"strings"
)

// ErrInvalidFileName is returned for empty or traversal-prone names.
var ErrInvalidFileName = errors.New("invalid file name")

var separatorReplacer = strings.NewReplacer("/", "_", "\\", "_")

// SanitizeFileName flattens path separators and rejects traversal patterns
// so uploaded names are safe to use as storage keys.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := separatorReplacer.Replace(strings.TrimSpace(name))
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
