// Package fileutil holds the file helpers shared by the exporters.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var filenameReplacer = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
	"?", "",
	"*", "",
	"<", "",
	">", "",
	"|", "-",
	"\"", "'",
)

// SanitizeFilename cleans a name so it can be used as a file name on every
// platform. An empty result falls back to "untitled".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(filenameReplacer.Replace(name))
	name = strings.Trim(name, ".")
	if name == "" {
		return "untitled"
	}
	return name
}

// NotePath returns the markdown note path for a store name, adding the id
// when two stores share a name.
func NotePath(dir, name, id string, taken map[string]bool) string {
	base := SanitizeFilename(name)
	if taken != nil {
		if taken[base] && id != "" {
			base = fmt.Sprintf("%s (%s)", base, SanitizeFilename(id))
		}
		taken[base] = true
	}
	return filepath.Join(dir, base+".md")
}

// FileExists checks if a regular file exists at the given path.
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFile writes data to filePath, creating parent directories. Existing
// files are kept unless overwrite is set. It reports whether the file was
// written.
func WriteFile(filePath string, data []byte, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", filePath, err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", filePath, err)
	}
	return true, nil
}
