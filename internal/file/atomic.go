package file

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteAtomic writes content to a temporary sibling of path and renames it into place, so readers observe either
// the previous file or the complete new one.
func WriteAtomic(fs afero.Fs, path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create directory %q: %w", dir, err)
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("unable to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return fmt.Errorf("unable to write %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("unable to close %q: %w", tmpName, err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("unable to move %q into place: %w", path, err)
	}
	return nil
}
