// Package storage writes pipeline artifacts to disk.
package storage

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/postbuilder/internal/foundation/errors"
)

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old artifact or the complete new one.
// Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create artifact directory").
			WithContext("path", dir).
			Fatal().
			Build()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create temporary artifact").
			WithContext("path", path).
			Fatal().
			Build()
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return writeErr(err, path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return writeErr(err, path)
	}
	if err := tmp.Close(); err != nil {
		return writeErr(err, path)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return writeErr(err, path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to move artifact into place").
			WithContext("path", path).
			Fatal().
			Build()
	}
	committed = true
	return nil
}

func writeErr(err error, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, "failed to write artifact").
		WithContext("path", path).
		Fatal().
		Build()
}
