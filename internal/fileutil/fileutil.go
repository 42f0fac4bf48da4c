// Package fileutil provides the small filesystem helpers the export paths
// rely on, chiefly atomic writes so a failure mid-export never leaves a
// partial artifact behind.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempPath returns the staging path an atomic write uses for final.
func TempPath(final string) string {
	return final + ".part"
}

// WriteFileAtomic writes data to a temporary sibling of path and renames it
// into place, so readers observe either the old content or the new, never a
// torn file.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure directory: %w", err)
	}
	tmp := TempPath(path)
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Promote renames a staging file produced by TempPath into its final place.
func Promote(final string) error {
	return os.Rename(TempPath(final), final)
}

// Discard removes a staging file, ignoring its absence.
func Discard(final string) {
	_ = os.Remove(TempPath(final))
}

// EnsureDir creates dir and parents when missing.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
