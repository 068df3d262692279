package resource

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/kevensen/frtsdk/internal/file"
	"github.com/kevensen/frtsdk/redteam/redteamerr"
)

var _ Connector = (*FileConnector)(nil)

// FileConnector reads and writes a local file. Files named `*.gz` are transparently (de)compressed.
type FileConnector struct {
	fs   afero.Fs
	path string
}

func NewFileConnector(fs afero.Fs, path string) *FileConnector {
	return &FileConnector{
		fs:   fs,
		path: strings.TrimPrefix(path, "file://"),
	}
}

func (c *FileConnector) Location() string { return c.path }

func (c *FileConnector) Kind() Kind { return FileKind }

func (c *FileConnector) compressed() bool {
	return strings.HasSuffix(strings.ToLower(c.path), ".gz")
}

func (c *FileConnector) Open(context.Context) ([]byte, error) {
	payload, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return nil, redteamerr.NewFetchError(c.path, err)
	}

	if c.compressed() {
		payload, err = gunzip(payload)
		if err != nil {
			return nil, redteamerr.NewFetchError(c.path, err)
		}
	}
	return payload, nil
}

func (c *FileConnector) Exists(context.Context) (bool, error) {
	return file.Exists(c.fs, c.path), nil
}

func (c *FileConnector) Write(_ context.Context, content []byte) error {
	if c.compressed() {
		compressed, err := gzipBytes(content)
		if err != nil {
			return fmt.Errorf("unable to compress %q: %w", c.path, err)
		}
		content = compressed
	}
	return file.WriteAtomic(c.fs, c.path, content)
}

func (c *FileConnector) Delete(context.Context) error {
	if err := c.fs.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to delete %q: %w", c.path, err)
	}
	return nil
}
