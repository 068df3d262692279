package file

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// GetWriter opens the given output file (creating parent directories as needed), or hands back the default writer
// when no file is given. The returned func closes whatever was opened.
func GetWriter(fs afero.Fs, defaultWriter io.Writer, outputFile string) (io.Writer, func() error, error) {
	nop := func() error { return nil }
	path := strings.TrimSpace(outputFile)
	if path == "" {
		return defaultWriter, nop, nil
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nop, fmt.Errorf("unable to create directory for %q: %w", path, err)
	}
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nop, fmt.Errorf("unable to create report file: %w", err)
	}
	return f, f.Close, nil
}
