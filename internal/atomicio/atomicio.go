// Package atomicio provides write-temp-then-rename helpers shared by every
// on-disk cache in the build engine, so a crash mid-write never leaves a
// half-written cache file behind.
package atomicio

import (
	"os"
	"path/filepath"
)

// WriteFile writes data to path via a temporary file in the same directory
// followed by a rename, so readers never observe a partial write.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
