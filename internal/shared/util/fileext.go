package util

import (
	"path/filepath"
	"strings"
)

// FileExt returns the lowercased extension of a file name, including the dot.
func FileExt(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}
